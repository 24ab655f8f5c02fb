// Package server assembles the HTTP surface and background runners on
// top of the core: ingest pipeline, similarity engine, stats, and the
// staging sweeper and reminder loops.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/moodgram/moodgram/internal/profile"
	"github.com/moodgram/moodgram/plugin/emotion"
	"github.com/moodgram/moodgram/plugin/face"
	"github.com/moodgram/moodgram/server/ingest"
	"github.com/moodgram/moodgram/server/query"
	apiv1 "github.com/moodgram/moodgram/server/router/api/v1"
	"github.com/moodgram/moodgram/server/runner/reminder"
	"github.com/moodgram/moodgram/server/runner/sweeper"
	"github.com/moodgram/moodgram/server/stats"
	"github.com/moodgram/moodgram/storage"
	"github.com/moodgram/moodgram/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	content    *storage.LocalStore
	collector  *stats.Collector

	// notifier delivers reminders when a bot surface is attached.
	notifier reminder.Notifier
}

// NewServer wires the full service graph. The extractor defaults to the
// HTTP client against Profile.ExtractorURL; tests inject a mock through
// the same parameter. The classifier may be nil, which disables label
// suggestions.
func NewServer(ctx context.Context, profile *profile.Profile, st *store.Store, extractor face.Extractor, classifier emotion.Classifier) (*Server, error) {
	content, err := storage.NewLocalStore(filepath.Join(profile.Data, "images"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create image storage")
	}

	if extractor == nil {
		extractor = face.NewClient(&face.Config{
			BaseURL:    profile.ExtractorURL,
			Dimensions: profile.EmbeddingDim,
		})
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			slog.Info("request", "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	collector := stats.NewCollector(st)
	s := &Server{
		Profile:    profile,
		Store:      st,
		echoServer: e,
		content:    content,
		collector:  collector,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	pipeline := ingest.NewPipeline(st, content, extractor, nil)
	engine := query.NewEngine(st)
	apiv1.NewAPIV1Service(profile, st, pipeline, engine, collector, classifier).RegisterRoutes(e)

	return s, nil
}

// SetNotifier attaches a reminder delivery channel. Must be called
// before Start; reminders stay disabled when no notifier is attached.
func (s *Server) SetNotifier(notifier reminder.Notifier) {
	s.notifier = notifier
}

func (s *Server) Start(ctx context.Context) error {
	s.StartBackgroundRunners(ctx)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	return s.echoServer.Start(address)
}

// StartBackgroundRunners launches the staging sweeper, the stats
// collector, and the reminder loop when a notifier is attached.
func (s *Server) StartBackgroundRunners(ctx context.Context) {
	s.collector.Start(ctx)

	maxAge := time.Duration(s.Profile.StageTTLMinutes) * time.Minute
	go sweeper.NewRunner(s.content, maxAge).Run(ctx)

	if s.notifier != nil {
		go reminder.NewRunner(s.Store, s.notifier).Run(ctx)
	}
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	s.collector.Stop()

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("moodgram stopped properly")
}
