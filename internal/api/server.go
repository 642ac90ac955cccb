// Package api exposes the HTTP interface for the ingestion service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/extract"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/progress/sinks"
)

// SingleExtractor runs one URL through extraction outside a full run.
type SingleExtractor interface {
	ExtractOne(ctx context.Context, rawURL string) (extract.Result, error)
}

// RunQueue schedules full pipeline runs.
type RunQueue interface {
	Enqueue(sources []ingest.Source) (uuid.UUID, error)
}

// ProgressReader answers run progress queries.
type ProgressReader interface {
	Snapshot(runID uuid.UUID) (sinks.State, bool)
}

// AuthConfig controls the API key middleware.
type AuthConfig struct {
	Enabled bool
	APIKey  string
}

// Config carries what the server needs beyond its collaborators.
type Config struct {
	Auth AuthConfig
	// DefaultSources are processed when a trigger names none.
	DefaultSources []ingest.Source
	// RequestTimeout bounds HTTP handlers except the synchronous extract
	// endpoint, which gets ExtractTimeout.
	RequestTimeout time.Duration
	ExtractTimeout time.Duration
}

// Server wires HTTP handlers to the pipeline.
type Server struct {
	router    chi.Router
	extractor SingleExtractor
	runs      RunQueue
	state     ProgressReader
	cfg       Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	extractor SingleExtractor,
	runs RunQueue,
	state ProgressReader,
	metrics prometheus.Gatherer,
	cfg Config,
	logger *zap.Logger,
) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		extractor: extractor,
		runs:      runs,
		state:     state,
		cfg:       cfg,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract-job-details", s.extractJobDetails)
		r.Post("/auto-create-job-posting", s.autoCreateJobPosting)
		r.Get("/runs/{run_id}/progress", s.runProgress)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
