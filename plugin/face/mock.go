package face

import (
	"context"
	"crypto/sha256"
	"math"
)

// MockExtractor is a deterministic in-process Extractor for testing.
// The embedding is derived from a hash of the image bytes, so identical
// inputs always yield identical vectors.
type MockExtractor struct {
	dimensions int

	// FacesFunc, when set, overrides the detected face count per image.
	FacesFunc func(image []byte) int
}

// NewMockExtractor creates a mock extractor with the given
// dimensionality (EmbeddingDim when zero).
func NewMockExtractor(dimensions int) *MockExtractor {
	if dimensions <= 0 {
		dimensions = EmbeddingDim
	}
	return &MockExtractor{dimensions: dimensions}
}

func (m *MockExtractor) Dimensions() int {
	return m.dimensions
}

func (m *MockExtractor) Extract(_ context.Context, image []byte) ([]float32, error) {
	if m.FacesFunc != nil {
		switch faces := m.FacesFunc(image); {
		case faces == 0:
			return nil, ErrNoFaceDetected
		case faces > 1:
			return nil, ErrAmbiguousFace
		}
	}

	digest := sha256.Sum256(image)
	vector := make([]float32, m.dimensions)
	for i := range vector {
		// Spread hash bytes over [-1, 1).
		vector[i] = float32(digest[i%len(digest)])/128.0 - 1.0
	}

	// Normalize so distances are well conditioned.
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector, nil
}
