// Package emotion provides the emotion classifier contract. The
// classifier is an external capability used by the bot surface to
// suggest a label; the core only validates that whatever label reaches
// it belongs to the fixed enumeration.
package emotion

import (
	"context"

	"github.com/pkg/errors"

	"github.com/moodgram/moodgram/store"
)

// DefaultThreshold is the minimum confidence for a prediction to be
// treated as usable.
const DefaultThreshold = 0.80

var (
	// ErrLowConfidence is returned when the best prediction falls below
	// the configured threshold. The caller should ask for a manual label.
	ErrLowConfidence = errors.New("emotion prediction below confidence threshold")
	// ErrNoFaceDetected is returned when the classifier finds no face.
	ErrNoFaceDetected = errors.New("no face detected in the image")
)

// Prediction is one classified label with its confidence.
type Prediction struct {
	Emotion    store.Emotion
	Confidence float64
}

// Classifier predicts the dominant emotion on a face image.
type Classifier interface {
	// Classify returns the dominant emotion, or ErrLowConfidence /
	// ErrNoFaceDetected.
	Classify(ctx context.Context, image []byte) (*Prediction, error)
}
