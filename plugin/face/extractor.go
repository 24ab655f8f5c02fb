// Package face provides the face-embedding extractor contract consumed
// by the ingest pipeline. The extractor is an external capability: it
// turns an image into a fixed-length embedding vector or fails with a
// typed detection error.
package face

import (
	"context"

	"github.com/pkg/errors"
)

// EmbeddingDim is the fixed dimensionality of face embeddings.
const EmbeddingDim = 128

var (
	// ErrNoFaceDetected is returned when zero faces are found. This is a
	// legitimate outcome, not a transient fault; callers must not retry.
	ErrNoFaceDetected = errors.New("no face detected in the image")
	// ErrAmbiguousFace is returned when more than one face is found.
	ErrAmbiguousFace = errors.New("multiple faces detected")
)

// Extractor produces a fixed-dimensionality face embedding per image.
type Extractor interface {
	// Extract returns the embedding of the single face in the image, or
	// ErrNoFaceDetected / ErrAmbiguousFace.
	Extract(ctx context.Context, image []byte) ([]float32, error)

	// Dimensions returns the vector dimensionality this extractor
	// emits. It must match the store's configured dimensionality.
	Dimensions() int
}
