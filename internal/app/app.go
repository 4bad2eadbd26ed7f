// Package app wires configuration, infrastructure, services, and the HTTP
// router into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"cotpulse/internal/cache"
	"cotpulse/internal/config"
	"cotpulse/internal/cot"
	apierrors "cotpulse/internal/errors"
	"cotpulse/internal/infrastructure"
	customMiddleware "cotpulse/internal/middleware"
	"cotpulse/internal/services"
	transport "cotpulse/internal/transport/http"
	v1 "cotpulse/pkg/contracts/api/v1"
)

// AppName is the application display name.
const AppName = "COT Pulse"

// Version and BuildTime are stamped at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Application is the main application container.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	DataCache *cache.Store[[]cot.RawRow]
	APICache  *cache.Store[v1.Envelope]

	COTService    *services.COTService
	HealthService *services.HealthService
}

// NewApplication creates a new application instance with dependency
// injection.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	otelProviders, err := infrastructure.InitializeOTel(Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the cache domains, upstream client, and the
// service layer in dependency order.
func (a *Application) initializeServices() {
	a.DataCache = cache.New[[]cot.RawRow]("data",
		cache.WithDefaultTTL[[]cot.RawRow](a.Config.Cache.DataTTL))
	a.APICache = cache.New[v1.Envelope]("api",
		cache.WithDefaultTTL[v1.Envelope](a.Config.Cache.APITTL))

	client := cot.NewClient(a.Config.Upstream, a.Logger)
	orch := cot.NewOrchestrator(client, a.DataCache, a.Config.Upstream, a.Logger)

	a.COTService = services.NewCOTService(orch, a.APICache, a.Config.Cache.APITTL, a.Logger)
	a.HealthService = services.NewHealthService(Version, BuildTime, a.COTService, a.Logger)
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.corsConfig()))
	}
	if a.Config.Security.RateLimit.Enabled {
		rl := customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger)
		r.Use(rl.Handler)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger)
	cotHandler := transport.NewCOTHandler(a.COTService, a.Logger, errorHandler)
	healthHandler := transport.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Get("/health", healthHandler.HealthCheck)
		r.Mount("/cot", cotHandler.Routes())
	})

	r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)

	a.Router = r
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		ExposedHeaders: []string{"X-Request-ID"},
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server. Server errors cancel the supplied context
// so Run can shut everything down.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.Bool("mock_upstream", a.Config.Upstream.Mock))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.Start(ctx, cancel)

	select {
	case sig := <-sigChan:
		a.Logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
