package store

import (
	"context"

	"github.com/pkg/errors"
)

// Emotion is one of the fixed emotion labels an image can be tagged with.
type Emotion string

const (
	EmotionAngry    Emotion = "angry"
	EmotionDisgust  Emotion = "disgust"
	EmotionFear     Emotion = "fear"
	EmotionHappy    Emotion = "happy"
	EmotionNeutral  Emotion = "neutral"
	EmotionSad      Emotion = "sad"
	EmotionSurprise Emotion = "surprise"
)

// Emotions lists every valid emotion label.
var Emotions = []Emotion{
	EmotionAngry,
	EmotionDisgust,
	EmotionFear,
	EmotionHappy,
	EmotionNeutral,
	EmotionSad,
	EmotionSurprise,
}

// ErrInvalidEmotionLabel is returned when a label falls outside the fixed set.
var ErrInvalidEmotionLabel = errors.New("invalid emotion label")

func (e Emotion) IsValid() bool {
	for _, emotion := range Emotions {
		if e == emotion {
			return true
		}
	}
	return false
}

func (e Emotion) String() string {
	return string(e)
}

// Image represents one accepted photo: an immutable record linking the
// stored file, its face embedding, and submission metadata. Rows are
// created by the ingest pipeline and never updated.
type Image struct {
	// ID is the generated unique identifier (UUID), immutable.
	ID string
	// UserID is the submitting user, immutable.
	UserID string
	// Emotion is the label the photo was tagged with.
	Emotion Emotion
	// FilePath is the committed location in the content store.
	FilePath string
	// Embedding is the fixed-dimensionality face embedding.
	Embedding []float32
	// CreatedTs is the submission time (unix seconds). Backdated for
	// bulk imports, otherwise ingest time.
	CreatedTs int64
}

// FindImage is the find condition for images.
type FindImage struct {
	ID            *string
	UserID        *string
	Emotion       *Emotion
	CreatedAfter  *int64
	CreatedBefore *int64
	// ExcludeUserID drops images owned by the given user.
	ExcludeUserID *string
	// SearchAllowedOnly keeps only images whose owner has a settings row
	// with search_allowed = true.
	SearchAllowedOnly bool
	Limit             *int
}

// ImageWithDistance is a similarity search result.
type ImageWithDistance struct {
	Image *Image
	// Distance is the cosine distance to the query vector, in [0, 2].
	Distance float64
}

// VectorSearchOptions narrows a k-nearest-neighbor scan over stored
// embeddings. All predicate fields are optional except the visibility
// restriction, which callers are expected to keep enabled.
type VectorSearchOptions struct {
	// Vector is the query embedding.
	Vector []float32
	// Limit caps the number of results.
	Limit int

	Emotion           *Emotion
	ExcludeUserID     *string
	CreatedAfter      *int64
	CreatedBefore     *int64
	SearchAllowedOnly bool
}

// CreateImage persists a new image record. The embedding dimensionality
// is validated against the profile before the row is written.
func (s *Store) CreateImage(ctx context.Context, create *Image) (*Image, error) {
	if !create.Emotion.IsValid() {
		return nil, errors.Wrapf(ErrInvalidEmotionLabel, "%q", create.Emotion)
	}
	if len(create.Embedding) != s.profile.EmbeddingDim {
		return nil, errors.Errorf("embedding dimensionality mismatch: got %d, want %d", len(create.Embedding), s.profile.EmbeddingDim)
	}
	return s.driver.CreateImage(ctx, create)
}

// GetImage returns the matching image or nil when none exists.
func (s *Store) GetImage(ctx context.Context, find *FindImage) (*Image, error) {
	list, err := s.driver.ListImages(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListImages(ctx context.Context, find *FindImage) ([]*Image, error) {
	return s.driver.ListImages(ctx, find)
}

// VectorSearch performs a filtered k-nearest-neighbor search ordered by
// ascending cosine distance, ties broken by id.
func (s *Store) VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*ImageWithDistance, error) {
	return s.driver.VectorSearch(ctx, opts)
}

// CountDistinctSubmitters counts distinct owners with at least one image
// in the given time range, optionally restricted to one emotion.
func (s *Store) CountDistinctSubmitters(ctx context.Context, find *FindImage) (int, error) {
	return s.driver.CountDistinctSubmitters(ctx, find)
}
