// Package query implements the similarity query engine: filtered
// k-nearest-neighbor retrieval over stored face embeddings, ranked by
// ascending cosine distance.
package query

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/moodgram/moodgram/server/timezone"
	"github.com/moodgram/moodgram/store"
)

// ErrRecordNotFound is returned when the reference image id does not
// exist. Distinct from an empty result, which means the reference has
// no eligible matches.
var ErrRecordNotFound = errors.New("record not found")

// TimeScope restricts candidates by creation time.
type TimeScope int

const (
	// AllTime places no time restriction on candidates.
	AllTime TimeScope = iota
	// Today keeps only candidates created in the current local calendar
	// day (midnight to midnight).
	Today
)

// Filters is the recognized filter set for a similarity query. The
// owner-visibility restriction (search_allowed) is not represented
// here: it is unconditional and always applied by the engine.
type Filters struct {
	// SameEmotion keeps only candidates with the reference's label.
	SameEmotion bool
	// ExcludeOwner drops candidates owned by the reference's owner.
	// Note that without this flag the reference record itself is a
	// valid candidate at distance 0.
	ExcludeOwner bool
	// TimeScope restricts candidate creation time.
	TimeScope TimeScope
}

// Engine answers similarity queries against the metadata repository
// through a pluggable vector index.
type Engine struct {
	store *store.Store
	index VectorIndex
	loc   *time.Location
}

// NewEngine creates an engine with the index best suited to the store's
// driver: database-side pgvector ranking on PostgreSQL, an in-process
// brute-force scan otherwise.
func NewEngine(st *store.Store) *Engine {
	var index VectorIndex
	if st.Profile().Driver == "postgres" {
		index = NewNativeIndex(st)
	} else {
		index = NewBruteForceIndex(st)
	}
	return NewEngineWithIndex(st, index)
}

// NewEngineWithIndex creates an engine over an explicit index.
func NewEngineWithIndex(st *store.Store, index VectorIndex) *Engine {
	return &Engine{
		store: st,
		index: index,
		loc:   timezone.Local,
	}
}

// FindSimilar returns up to k images similar to the referenced record,
// ordered by ascending cosine distance with a deterministic id
// tie-break. A missing reference yields ErrRecordNotFound; zero
// eligible candidates yield an empty list.
func (e *Engine) FindSimilar(ctx context.Context, referenceID string, k int, filters Filters) ([]*store.ImageWithDistance, error) {
	reference, err := e.store.GetImage(ctx, &store.FindImage{ID: &referenceID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load reference image")
	}
	if reference == nil {
		return nil, errors.Wrapf(ErrRecordNotFound, "image %s", referenceID)
	}
	return e.FindSimilarToImage(ctx, reference, k, filters)
}

// FindSimilarToImage is FindSimilar for callers already holding the
// reference record.
func (e *Engine) FindSimilarToImage(ctx context.Context, reference *store.Image, k int, filters Filters) ([]*store.ImageWithDistance, error) {
	if k <= 0 {
		return []*store.ImageWithDistance{}, nil
	}

	opts := &store.VectorSearchOptions{
		Vector: reference.Embedding,
		Limit:  k,
		// Opted-out owners are never eligible, regardless of the
		// caller's filters.
		SearchAllowedOnly: true,
	}
	if filters.SameEmotion {
		emotion := reference.Emotion
		opts.Emotion = &emotion
	}
	if filters.ExcludeOwner {
		owner := reference.UserID
		opts.ExcludeUserID = &owner
	}
	if filters.TimeScope == Today {
		start, end := timezone.TodayRange(e.loc)
		opts.CreatedAfter = &start
		opts.CreatedBefore = &end
	}

	results, err := e.index.Search(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "similarity search failed")
	}
	return results, nil
}
