// Package server provides the HTTP JSON API over a loaded pack.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dshills/packcheck/internal/app"
	"github.com/dshills/packcheck/internal/config"
	"github.com/dshills/packcheck/internal/logging"
)

const requestTimeout = 60 * time.Second

// Server is the HTTP server for the packcheck API.
type Server struct {
	backend    app.Backend
	config     config.ServerConfig
	defaultTop int
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(backend app.Backend, cfg config.ServerConfig, defaultTop int, logger *zap.Logger) *Server {
	if defaultTop < 1 {
		defaultTop = config.DefaultTop
	}
	return &Server{
		backend:    backend,
		config:     cfg,
		defaultTop: defaultTop,
		logger:     logging.OrNop(logger),
	}
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/info", s.handleInfo)
		r.Post("/search", s.handleSearch)
		r.Get("/verify", s.handleVerify)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.String("pack", s.backend.PackPath()))
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
