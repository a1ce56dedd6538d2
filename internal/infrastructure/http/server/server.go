// Package server provides the HTTP server hosting the REST API.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/spicesync/spicesync/internal/infrastructure/config"
	"github.com/spicesync/spicesync/internal/infrastructure/http/handlers"
	"github.com/spicesync/spicesync/internal/infrastructure/http/middleware"
	"github.com/spicesync/spicesync/internal/infrastructure/monitoring"
	"github.com/spicesync/spicesync/pkg/healthcheck"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	router  *chi.Mux
	server  *http.Server
	api     *handlers.APIHandlers
	health  *healthcheck.HealthCheck
	metrics *monitoring.Metrics
	mw      *middleware.Middleware
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	api *handlers.APIHandlers,
	health *healthcheck.HealthCheck,
	metrics *monitoring.Metrics,
) (*Server, error) {
	s := &Server{
		config:  cfg,
		logger:  logger,
		api:     api,
		health:  health,
		metrics: metrics,
		mw:      middleware.New(logger, metrics),
	}

	s.router = s.setupRouter()

	s.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	if err := http2.ConfigureServer(s.server, &http2.Server{}); err != nil {
		return nil, fmt.Errorf("failed to configure http2: %w", err)
	}

	return s, nil
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.mw.RequestID)
	r.Use(s.mw.Recoverer)
	r.Use(s.mw.Logger)
	if s.config.Monitoring.EnableMetrics {
		r.Use(s.mw.Metrics)
	}
	r.Use(chimiddleware.RequestSize(s.config.Server.MaxImageBytes))

	r.Get(s.config.Monitoring.HealthCheckPath, s.health.Handler())
	r.Get(s.config.Monitoring.ReadinessPath, s.health.ReadyHandler())
	if s.config.Monitoring.EnableMetrics {
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	r.Route("/api/v1", s.api.Routes)

	return r
}

// Start begins serving requests and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the mux, used by handler tests.
func (s *Server) Router() http.Handler {
	return s.router
}
