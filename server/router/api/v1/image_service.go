package v1

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/moodgram/moodgram/plugin/face"
	"github.com/moodgram/moodgram/server/ingest"
	"github.com/moodgram/moodgram/server/query"
	"github.com/moodgram/moodgram/storage"
	"github.com/moodgram/moodgram/store"
)

// maxImageBytes bounds uploaded photo size (8 MiB).
const maxImageBytes = 8 << 20

type imageResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Emotion   string  `json:"emotion"`
	CreatedTs int64   `json:"createdTs"`
	Distance  float64 `json:"distance,omitempty"`
}

func toImageResponse(img *store.Image, distance float64) *imageResponse {
	return &imageResponse{
		ID:        img.ID,
		UserID:    img.UserID,
		Emotion:   string(img.Emotion),
		CreatedTs: img.CreatedTs,
		Distance:  distance,
	}
}

// ingestImage accepts a multipart photo upload tagged with an emotion.
// Form fields: file, emotion, userId, createdTs (optional, unix seconds,
// for bulk imports).
func (s *APIV1Service) ingestImage(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.FormValue("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	if !s.ingestLimiter.Allow(userID) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many submissions")
	}

	emotion := store.Emotion(c.FormValue("emotion"))

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
	if len(image) > maxImageBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
	}

	var createdAt *time.Time
	if raw := c.FormValue("createdTs"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid createdTs")
		}
		t := time.Unix(ts, 0)
		createdAt = &t
	}

	id, err := s.Pipeline.Ingest(ctx, image, emotion, userID, createdAt)
	if err != nil {
		return ingestError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

// findSimilar returns up to k images similar to the referenced one.
// Query params: k, sameEmotion, excludeOwner, scope (today|all).
func (s *APIV1Service) findSimilar(c echo.Context) error {
	ctx := c.Request().Context()
	referenceID := c.Param("id")

	k := 5
	if raw := c.QueryParam("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid k")
		}
		k = parsed
	}

	filters := query.Filters{
		SameEmotion:  c.QueryParam("sameEmotion") == "true",
		ExcludeOwner: c.QueryParam("excludeOwner") == "true",
	}
	switch c.QueryParam("scope") {
	case "", "all":
		filters.TimeScope = query.AllTime
	case "today":
		filters.TimeScope = query.Today
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid scope")
	}

	matches, err := s.Engine.FindSimilar(ctx, referenceID, k, filters)
	if err != nil {
		if errors.Is(err, query.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "image not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "similarity search failed")
	}

	response := make([]*imageResponse, 0, len(matches))
	for _, match := range matches {
		response = append(response, toImageResponse(match.Image, match.Distance))
	}
	return c.JSON(http.StatusOK, response)
}

// listUserImages returns a user's own submission history, newest first.
func (s *APIV1Service) listUserImages(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("id")

	list, err := s.Store.ListImages(ctx, &store.FindImage{UserID: &userID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list images")
	}

	response := make([]*imageResponse, 0, len(list))
	for _, img := range list {
		response = append(response, toImageResponse(img, 0))
	}
	return c.JSON(http.StatusOK, response)
}

// ingestError maps pipeline failures onto HTTP status codes without
// collapsing the taxonomy.
func ingestError(err error) error {
	switch {
	case errors.Is(err, face.ErrNoFaceDetected):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "no face detected in the image")
	case errors.Is(err, face.ErrAmbiguousFace):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "multiple faces detected")
	case errors.Is(err, store.ErrInvalidEmotionLabel):
		return echo.NewHTTPError(http.StatusBadRequest, "emotion label outside the fixed set")
	case errors.Is(err, storage.ErrStorageFailure):
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store image")
	case errors.Is(err, ingest.ErrRepositoryFailure):
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record image")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "ingest failed")
	}
}
