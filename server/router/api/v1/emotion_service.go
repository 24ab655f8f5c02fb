package v1

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/moodgram/moodgram/plugin/emotion"
	"github.com/moodgram/moodgram/store"
)

type predictionResponse struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

// suggestEmotion classifies a photo and suggests a label. Only users
// who enabled AI assistance get suggestions; a rejected prediction
// means the caller should ask for a manual label.
func (s *APIV1Service) suggestEmotion(c echo.Context) error {
	ctx := c.Request().Context()

	if s.Classifier == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no classifier configured")
	}

	userID := c.FormValue("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	setting, err := s.Store.GetUserSetting(ctx, &store.FindUserSetting{UserID: &userID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user setting")
	}
	if setting != nil && !setting.AIEnabled {
		return echo.NewHTTPError(http.StatusForbidden, "AI assistance is disabled for this user")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxImageBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open upload")
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read upload")
	}

	prediction, err := s.Classifier.Classify(ctx, image)
	if err != nil {
		switch {
		case errors.Is(err, emotion.ErrNoFaceDetected):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "no face detected in the image")
		case errors.Is(err, emotion.ErrLowConfidence):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "prediction below confidence threshold")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "classification failed")
		}
	}

	return c.JSON(http.StatusOK, &predictionResponse{
		Emotion:    string(prediction.Emotion),
		Confidence: prediction.Confidence,
	})
}
