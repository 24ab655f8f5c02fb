package query

import (
	"context"
	"sort"

	"github.com/moodgram/moodgram/store"
)

// VectorIndex is the pluggable k-nearest-neighbor backend. The engine
// only depends on this contract, so the ranking implementation can move
// from a brute-force scan to a database-side or ANN index without
// touching callers.
type VectorIndex interface {
	// Search returns up to opts.Limit images ordered by ascending
	// cosine distance to opts.Vector, ties broken by id.
	Search(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ImageWithDistance, error)
}

// nativeIndex delegates ranking to the store driver (pgvector on
// PostgreSQL).
type nativeIndex struct {
	store *store.Store
}

// NewNativeIndex returns an index backed by the driver's VectorSearch.
func NewNativeIndex(st *store.Store) VectorIndex {
	return &nativeIndex{store: st}
}

func (idx *nativeIndex) Search(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ImageWithDistance, error) {
	return idx.store.VectorSearch(ctx, opts)
}

// bruteForceIndex ranks candidates with an in-process scan: fetch the
// filtered rows, compute a cosine distance per row, sort, truncate.
// Sufficient for small corpora and the only option on SQLite.
type bruteForceIndex struct {
	store *store.Store
}

// NewBruteForceIndex returns an in-process scan index.
func NewBruteForceIndex(st *store.Store) VectorIndex {
	return &bruteForceIndex{store: st}
}

func (idx *bruteForceIndex) Search(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ImageWithDistance, error) {
	candidates, err := idx.store.ListImages(ctx, &store.FindImage{
		Emotion:           opts.Emotion,
		ExcludeUserID:     opts.ExcludeUserID,
		CreatedAfter:      opts.CreatedAfter,
		CreatedBefore:     opts.CreatedBefore,
		SearchAllowedOnly: opts.SearchAllowedOnly,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*store.ImageWithDistance, 0, len(candidates))
	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		results = append(results, &store.ImageWithDistance{
			Image:    candidate,
			Distance: CosineDistance(opts.Vector, candidate.Embedding),
		})
	}

	// Ascending distance; id tie-break keeps repeated queries stable.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Image.ID < results[j].Image.ID
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}
