// Package v1 exposes the core over a small JSON API consumed by the bot
// surface: ingest, similarity queries, aggregate counts, and settings.
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/moodgram/moodgram/internal/profile"
	"github.com/moodgram/moodgram/plugin/emotion"
	"github.com/moodgram/moodgram/server/ingest"
	"github.com/moodgram/moodgram/server/middleware"
	"github.com/moodgram/moodgram/server/query"
	"github.com/moodgram/moodgram/server/stats"
	"github.com/moodgram/moodgram/store"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Pipeline *ingest.Pipeline
	Engine   *query.Engine
	Counter  *stats.Counter

	// Collector serves the periodic usage snapshot on /stats.
	Collector *stats.Collector

	// Classifier suggests labels for users who enabled AI assistance.
	// Nil when no classifier backend is configured.
	Classifier emotion.Classifier

	// ingestLimiter throttles photo submissions per user.
	ingestLimiter *middleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, st *store.Store, pipeline *ingest.Pipeline, engine *query.Engine, collector *stats.Collector, classifier emotion.Classifier) *APIV1Service {
	return &APIV1Service{
		Profile:       profile,
		Store:         st,
		Pipeline:      pipeline,
		Engine:        engine,
		Counter:       stats.NewCounter(st),
		Collector:     collector,
		Classifier:    classifier,
		ingestLimiter: middleware.NewRateLimiter(2, 5),
	}
}

// RegisterRoutes registers all v1 routes on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.POST("/images", s.ingestImage)
	g.POST("/emotions/suggest", s.suggestEmotion)
	g.GET("/images/:id/similar", s.findSimilar)
	g.GET("/stats", s.usageStats)
	g.GET("/stats/submitters", s.distinctSubmitters)
	g.GET("/users/:id/images", s.listUserImages)
	g.PATCH("/users/:id/setting", s.updateUserSetting)
}
