// Package stats provides read-only aggregate statistics over the image
// repository. Counts are derived at query time, never stored.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/moodgram/moodgram/server/timezone"
	"github.com/moodgram/moodgram/store"
)

// Counter answers aggregate-count queries. Day scoping uses the same
// local midnight-to-midnight boundary as the similarity engine's Today
// filter.
type Counter struct {
	store *store.Store
	loc   *time.Location
}

// NewCounter creates a counter using the local timezone.
func NewCounter(st *store.Store) *Counter {
	return &Counter{store: st, loc: timezone.Local}
}

// DistinctSubmitters counts distinct owners with at least one image
// created today, optionally restricted to one emotion.
func (c *Counter) DistinctSubmitters(ctx context.Context, emotion *store.Emotion) (int, error) {
	start, end := timezone.TodayRange(c.loc)
	return c.store.CountDistinctSubmitters(ctx, &store.FindImage{
		Emotion:       emotion,
		CreatedAfter:  &start,
		CreatedBefore: &end,
	})
}

// Stats is a point-in-time usage snapshot.
type Stats struct {
	TotalImages     int64
	ImagesToday     int64
	SubmittersToday int64
	LastUpdated     time.Time
}

// Collector periodically snapshots usage statistics for display.
type Collector struct {
	store    *store.Store
	counter  *Counter
	stats    *Stats
	mu       sync.Mutex
	tickStop chan struct{}
}

// NewCollector creates a new statistics collector.
func NewCollector(st *store.Store) *Collector {
	return &Collector{
		store:    st,
		counter:  NewCounter(st),
		stats:    &Stats{LastUpdated: time.Now()},
		tickStop: make(chan struct{}),
	}
}

// Start begins periodic statistics collection.
// Updates every hour.
func (c *Collector) Start(ctx context.Context) {
	// Initial collection
	c.Collect(ctx)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Collect(ctx)
			case <-ctx.Done():
				return
			case <-c.tickStop:
				return
			}
		}
	}()
}

// Stop stops the statistics collector.
func (c *Collector) Stop() {
	select {
	case <-c.tickStop:
		// Already closed
	default:
		close(c.tickStop)
	}
}

// GetStats returns a copy of current statistics.
func (c *Collector) GetStats() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := *c.stats
	return &snapshot
}

// Collect gathers current statistics from the store.
func (c *Collector) Collect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	images, err := c.store.ListImages(ctx, &store.FindImage{})
	if err == nil {
		c.stats.TotalImages = int64(len(images))

		start, end := timezone.TodayRange(c.loc())
		todayCount := int64(0)
		for _, img := range images {
			if img.CreatedTs >= start && img.CreatedTs < end {
				todayCount++
			}
		}
		c.stats.ImagesToday = todayCount
	}

	if count, err := c.counter.DistinctSubmitters(ctx, nil); err == nil {
		c.stats.SubmittersToday = int64(count)
	}

	c.stats.LastUpdated = time.Now()
}

func (c *Collector) loc() *time.Location {
	return c.counter.loc
}
