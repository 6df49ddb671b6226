// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes generation and the project registry over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/internal/scaffold"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 10 * time.Second
	maxBodyBytes           = "4M"
)

// ProjectStore is the registry surface the API needs.
type ProjectStore interface {
	Create(ctx context.Context, p *types.Project) error
	Get(ctx context.Context, id string) (*types.Project, error)
	List(ctx context.Context, opts registry.ListOptions) ([]types.Project, error)
	Delete(ctx context.Context, id string) error
	Pipelines(ctx context.Context, id string) ([]types.PipelineRun, error)
	ProjectStats(ctx context.Context, id string) (*registry.ProjectStats, error)
	Stats(ctx context.Context) (*registry.Stats, error)
}

// Server is the HTTP API.
type Server struct {
	echo      *echo.Echo
	cfg       types.ServerConfig
	gen       *scaffold.Generator
	store     ProjectStore
	log       *log.Logger
	startTime time.Time
}

// New builds a Server. store may be nil, in which case the project
// endpoints answer 503.
func New(cfg types.ServerConfig, gen *scaffold.Generator, store ProjectStore, logger *log.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		cfg:       cfg,
		gen:       gen,
		store:     store,
		log:       logger,
		startTime: time.Now(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodyBytes))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := s.log.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("Request failed")
				return nil
			}
			entry.Debug("Request")
			return nil
		},
	}))

	s.registerRoutes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("Starting server")
		errCh <- s.echo.Start(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info("Shutting down server")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
