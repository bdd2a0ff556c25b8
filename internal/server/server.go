// Package server provides the HTTP API for mdsearch.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/mdsearch/internal/config"
	"github.com/hyperjump/mdsearch/internal/metrics"
	"github.com/hyperjump/mdsearch/internal/search"
	"github.com/hyperjump/mdsearch/internal/storage"
)

// WatchService reports the directories kept in sync by a file watcher.
type WatchService interface {
	Directories() []string
}

// Server is the HTTP server for the mdsearch API.
type Server struct {
	engine  *search.Engine
	storage storage.Storage
	config  *config.Config
	metrics *metrics.Metrics
	watch   WatchService
	logger  *zap.Logger
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics instruments every route and serves m on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithWatcher reports the watcher's directories in the status response.
func WithWatcher(w WatchService) Option {
	return func(s *Server) { s.watch = w }
}

// NewServer creates a server with the given dependencies. store may be nil, in which case
// document submission is disabled.
func NewServer(engine *search.Engine, store storage.Storage, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		storage: store,
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.config.Debug {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/documents", s.handleListDocuments)
		r.Post("/documents", s.handleIndexDocument)
		r.Get("/documents/*", s.handleGetDocument)
		r.Delete("/documents/*", s.handleDeleteDocument)
		r.Get("/resources", s.handleReadResource)
		r.Post("/index/rebuild", s.handleRebuild)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
