package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moodgram/moodgram/store"
)

type submittersResponse struct {
	Emotion string `json:"emotion,omitempty"`
	Count   int    `json:"count"`
}

type usageStatsResponse struct {
	TotalImages     int64  `json:"totalImages"`
	ImagesToday     int64  `json:"imagesToday"`
	SubmittersToday int64  `json:"submittersToday"`
	LastUpdated     string `json:"lastUpdated"`
}

// usageStats serves the collector's latest usage snapshot. The snapshot
// refreshes hourly; lastUpdated tells the caller how stale it is.
func (s *APIV1Service) usageStats(c echo.Context) error {
	snapshot := s.Collector.GetStats()
	return c.JSON(http.StatusOK, &usageStatsResponse{
		TotalImages:     snapshot.TotalImages,
		ImagesToday:     snapshot.ImagesToday,
		SubmittersToday: snapshot.SubmittersToday,
		LastUpdated:     snapshot.LastUpdated.UTC().Format(time.RFC3339),
	})
}

// distinctSubmitters reports how many distinct users submitted today,
// optionally narrowed to one emotion.
func (s *APIV1Service) distinctSubmitters(c echo.Context) error {
	ctx := c.Request().Context()

	var emotion *store.Emotion
	if raw := c.QueryParam("emotion"); raw != "" {
		e := store.Emotion(raw)
		if !e.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "emotion label outside the fixed set")
		}
		emotion = &e
	}

	count, err := s.Counter.DistinctSubmitters(ctx, emotion)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count submitters")
	}

	response := &submittersResponse{Count: count}
	if emotion != nil {
		response.Emotion = string(*emotion)
	}
	return c.JSON(http.StatusOK, response)
}
