package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/arkui-x/app-framework-sub003/internal/api/http"
	"github.com/arkui-x/app-framework-sub003/internal/api/middleware"
	"github.com/arkui-x/app-framework-sub003/internal/api/ws"
	"github.com/arkui-x/app-framework-sub003/internal/domain/app"
	"github.com/arkui-x/app-framework-sub003/internal/domain/appconfig"
	"github.com/arkui-x/app-framework-sub003/internal/domain/appcontext"
	"github.com/arkui-x/app-framework-sub003/internal/domain/bundle"
	"github.com/arkui-x/app-framework-sub003/internal/domain/resource"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/config"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/logging"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/monitoring"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/tracing"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/watcher"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	app      *app.Application
	bundles  *bundle.Registry
	tracer   *tracing.Tracer
	source   *watcher.SystemSource
	logger   *zap.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
}

// NewServer builds the application from cfg and mounts the admin API.
// A nil logger is built from cfg.Logging.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
			Bundle:      cfg.Bundle.Name,
			Sample:      true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing ability runtime",
		zap.String("bundle", cfg.Bundle.Name),
		zap.String("bundle_dir", cfg.Bundle.Dir),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize metrics first (needed by other components)
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	// Load module manifests
	bundles := bundle.NewRegistry()
	if _, err := bundle.NewLoader(bundles, logging.Component(logger, "bundle")).LoadDir(cfg.Bundle.Dir); err != nil {
		return nil, fmt.Errorf("failed to load bundle: %w", err)
	}

	initial, err := cfg.Initial.Configuration()
	if err != nil {
		return nil, err
	}

	appCtx := appcontext.New(cfg.Bundle.Name, logging.Component(logger, "context"))
	appCtx.SetResourceManager(resource.NewStore(resource.ResConfig{}))

	application := app.New(appCtx, bundles, appconfig.NewManager(), logging.Component(logger, "application")).
		WithMetrics(metrics)
	application.InitConfiguration(initial)

	var source *watcher.SystemSource
	if cfg.System.File != "" {
		source, err = watcher.NewSystemSource(cfg.System.File, application, cfg.System.Debounce,
			logging.Component(logger, "system-source"))
		if err != nil {
			application.Close()
			return nil, err
		}
	}

	tracer := tracing.New(logging.Component(logger, "tracing"), 1000)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics, "/metrics", "/stream"))
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORS.AllowOrigins
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	// Register routes
	apihttp.NewHandlers(application, bundles, logging.Component(logger, "http")).Register(router)

	wsHandler := ws.NewHandler(application, ws.DefaultOptions(), metrics, logging.Component(logger, "ws"))
	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		app:      application,
		bundles:  bundles,
		tracer:   tracer,
		source:   source,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		registry: registry,
	}, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Application returns the application hosted by the server.
func (s *Server) Application() *app.Application {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener. The system configuration source,
// when configured, is watched for the lifetime of ctx.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if s.source != nil {
		if err := s.source.Start(ctx); err != nil {
			_ = listener.Close()
			return fmt.Errorf("failed to start system configuration source: %w", err)
		}
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", listener.Addr().String()))
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// Close releases resources held by the server.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if s.source != nil {
		s.source.Stop()
	}
	s.app.Close()
	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}
