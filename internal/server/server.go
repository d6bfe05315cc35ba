package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"stackfast/config"
	"stackfast/internal/auth"
	"stackfast/internal/models"
	"stackfast/internal/recommend"
)

// Recommender runs the selection pipeline.
type Recommender interface {
	Run(ctx context.Context, req models.BlueprintRequest, observer recommend.Observer) (recommend.Outcome, error)
}

// BlueprintStore persists recommendations per user.
type BlueprintStore interface {
	Save(ctx context.Context, bp *models.Blueprint) error
	Get(ctx context.Context, userID, id string) (models.Blueprint, error)
	List(ctx context.Context, userID string) ([]models.Blueprint, error)
}

// ToolCatalog is the catalog as the HTTP layer reads it.
type ToolCatalog interface {
	recommend.CatalogLoader
	ListByCategory(ctx context.Context, category models.Category) ([]models.ToolProfile, error)
}

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveRequest(route string, status int, d time.Duration)
}

// Deps are the collaborators the HTTP layer calls.
type Deps struct {
	Recommender Recommender
	Auth        auth.Authenticator
	Catalog     ToolCatalog
	// Blueprints is optional; without it recommendations are not persisted
	// and the blueprint listing routes are not registered.
	Blueprints BlueprintStore
	// Metrics and MetricsHandler are optional.
	Metrics        RequestObserver
	MetricsHandler http.Handler
}

// Server is the StackFast HTTP API.
type Server struct {
	cfg         config.ServerConfig
	metricsPath string
	deps        Deps
}

// New validates the dependencies and builds a server.
func New(cfg config.ServerConfig, metricsPath string, deps Deps) (*Server, error) {
	if deps.Recommender == nil {
		return nil, fmt.Errorf("recommender is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return &Server{cfg: cfg, metricsPath: metricsPath, deps: deps}, nil
}

// Handler returns the full route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/blueprints", s.createBlueprintHandler)
	mux.HandleFunc("POST /api/blueprints/stream", s.streamBlueprintHandler)
	if s.deps.Blueprints != nil {
		mux.HandleFunc("GET /api/blueprints", s.listBlueprintsHandler)
		mux.HandleFunc("GET /api/blueprints/{id}", s.getBlueprintHandler)
	}
	mux.HandleFunc("GET /api/tools", s.listToolsHandler)
	mux.HandleFunc("GET /health", healthCheckHandler)
	if s.deps.MetricsHandler != nil {
		mux.Handle("GET "+s.metricsPath, s.deps.MetricsHandler)
	}

	return s.instrument(corsMiddleware(s.cfg.AllowedOrigin, recoverMiddleware(mux)))
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logrus.Infof("Starting server on port %s...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		logrus.Info("Shutting down server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logrus.Info("Server stopped")
		return nil
	}
}
