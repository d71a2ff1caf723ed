package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/app/domain/health"
	"github.com/helixlab/helixdash/internal/app/domain/tools"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/pkg/backend"
	"github.com/helixlab/helixdash/internal/pkg/cache"
	"github.com/helixlab/helixdash/internal/pkg/config"
	"github.com/helixlab/helixdash/internal/routes"
)

const limiterCleanupInterval = 5 * time.Minute

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  *backend.Client
	catalog *tools.Catalog
	monitor *health.Monitor
	caches  *cache.CacheManager
	limiter *middleware.RateLimiter
	router  http.Handler
}

// New creates a new Server instance with all dependencies
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	catalog, err := tools.LoadCatalog(cfg.Tools.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tool catalog: %w", err)
	}
	logger.Info("Tool catalog loaded",
		zap.Int("tools", catalog.Len()),
		zap.String("path", cfg.Tools.CatalogPath))

	client := backend.New(cfg.Backend, logger)

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		catalog: catalog,
		monitor: health.NewMonitor(client, cfg.Observability.HealthCheckSchedule, cfg.Observability.HealthCheckTimeout, logger),
		caches:  cache.NewCacheManager(),
		limiter: middleware.NewRateLimiter(cfg.Tools.RateLimitPerMinute, cfg.Tools.RateLimitBurst, limiterCleanupInterval),
	}
	return s, nil
}

// Dependencies exposes the shared services to the route layer.
func (s *Server) Dependencies() routes.Dependencies {
	return routes.Dependencies{
		Config:  s.cfg,
		Client:  s.client,
		Catalog: s.catalog,
		Monitor: s.monitor,
		Caches:  s.caches,
		Limiter: s.limiter,
	}
}

// Start begins the background backend health checks.
func (s *Server) Start(ctx context.Context) error {
	if err := s.monitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health monitor: %w", err)
	}
	return nil
}

// HTTPServer creates and configures the HTTP server. Tool runs wait on the
// backend, so the write timeout follows the backend timeout.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.router,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      s.cfg.Backend.Timeout + 15*time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

func (s *Server) Catalog() *tools.Catalog {
	return s.catalog
}

// Close stops the background workers.
func (s *Server) Close() {
	s.monitor.Stop()
	s.limiter.Stop()
}
