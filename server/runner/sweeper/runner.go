// Package sweeper reclaims stale staged files left behind by abandoned
// ingests so the staging area never accumulates indefinitely.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/moodgram/moodgram/storage"
)

type Runner struct {
	content  *storage.LocalStore
	interval time.Duration
	maxAge   time.Duration
}

// NewRunner creates a staging sweeper. maxAge is how long a staged
// entry may linger before it is considered abandoned.
func NewRunner(content *storage.LocalStore, maxAge time.Duration) *Runner {
	interval := maxAge / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Runner{
		content:  content,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run starts the background task.
func (r *Runner) Run(ctx context.Context) {
	// Sweep once on startup to clear leftovers from a previous crash.
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			slog.Info("staging sweeper stopped")
			return
		}
	}
}

// RunOnce sweeps once (for manual trigger).
func (r *Runner) RunOnce(ctx context.Context) {
	r.sweep(ctx)
}

func (r *Runner) sweep(ctx context.Context) {
	removed, err := r.content.SweepStale(ctx, r.maxAge)
	if err != nil {
		slog.Error("failed to sweep staged images", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("reclaimed stale staged images", "count", removed)
	}
}
