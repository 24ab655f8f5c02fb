package emotion

import (
	"context"
	"crypto/sha256"

	"github.com/moodgram/moodgram/store"
)

// MockClassifier is a deterministic Classifier for testing. The label is
// derived from a hash of the image bytes.
type MockClassifier struct {
	// Threshold below which predictions are rejected.
	Threshold float64
	// ConfidenceFunc, when set, overrides the reported confidence.
	ConfidenceFunc func(image []byte) float64
	// NoFace, when true, simulates a failed detection.
	NoFace bool
}

// NewMockClassifier creates a mock classifier with the default threshold.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{Threshold: DefaultThreshold}
}

func (m *MockClassifier) Classify(_ context.Context, image []byte) (*Prediction, error) {
	if m.NoFace {
		return nil, ErrNoFaceDetected
	}

	confidence := 0.95
	if m.ConfidenceFunc != nil {
		confidence = m.ConfidenceFunc(image)
	}
	if confidence < m.Threshold {
		return nil, ErrLowConfidence
	}

	digest := sha256.Sum256(image)
	label := store.Emotions[int(digest[0])%len(store.Emotions)]
	return &Prediction{Emotion: label, Confidence: confidence}, nil
}
