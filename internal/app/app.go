package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"salesview/internal/config"
	"salesview/internal/dataset"
	apierrors "salesview/internal/errors"
	"salesview/internal/infrastructure"
	custommw "salesview/internal/middleware"
	"salesview/internal/services"
	handlers "salesview/internal/transport/http"
	"salesview/internal/validation"
	ws "salesview/internal/websocket"
	"salesview/pkg/contracts"
)

// Application wires configuration, services, transport and the
// WebSocket hub into a runnable HTTP server.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Cache        *dataset.Cache
	Dashboard    *services.DashboardService
	Health       *services.HealthService
	WebSocketHub *ws.Hub
}

// NewApplication creates a fully wired application instance
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
		slog.String("version", contracts.Version),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	cache := dataset.NewCache()
	hub := ws.NewHub(logger)

	uploadValidator := validation.NewUploadValidator(logger,
		cfg.Upload.MaxBytes, cfg.Upload.AllowedExtensions)

	dashboard := services.NewDashboardService(logger, cache, uploadValidator,
		otelProviders, hub, cfg.Export.MeasureLabel)
	health := services.NewHealthService(logger, cache)

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Cache:         cache,
		Dashboard:     dashboard,
		Health:        health,
		WebSocketHub:  hub,
	}
	app.Router = app.buildRouter()
	app.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return app, nil
}

// buildRouter assembles the middleware chain and mounts all routes
func (app *Application) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommw.StructuredLogger(app.Logger))
	r.Use(custommw.Recoverer(app.Logger))
	r.Use(middleware.Timeout(60 * time.Second))

	if app.Config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			app.Config.Security.RateLimit.RPS,
			app.Config.Security.RateLimit.Burst,
			app.Logger)
		r.Use(limiter.Handler)
	}

	if app.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: app.Config.Security.AllowedOrigins,
			ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
			Logger:         app.Logger,
		}))
	}

	errorHandler := apierrors.NewErrorHandler(app.Logger, app.Config.Logging.Development)

	dashboardHandler := handlers.NewDashboardHandler(app.Dashboard, app.Logger,
		errorHandler, app.Config.Upload.MaxBytes, app.Config.Export.Filename)
	healthHandler := handlers.NewHealthHandler(app.Health, app.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Mount("/datasets", dashboardHandler.Routes())
		r.Get("/healthz", healthHandler.HealthCheck)
		r.Get("/healthz/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)
	})

	if app.OTelProviders != nil && app.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", app.OTelProviders.PrometheusHTTP)
	}

	if app.WebSocketHub != nil {
		r.Handle("/ws", ws.NewHandler(app.WebSocketHub, app.Config.WebSocket, app.Logger))
	}

	return r
}

// Run starts the HTTP server and the WebSocket hub, blocking until the
// context is cancelled or a termination signal arrives.
func (app *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.WebSocketHub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		app.Logger.Info("HTTP server listening", slog.String("addr", app.Server.Addr))
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown drains the HTTP server and flushes telemetry
func (app *Application) shutdown() error {
	app.Logger.Info("shutting down",
		slog.Duration("timeout", app.Config.Server.ShutdownTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Logger.Error("server shutdown failed", slog.String("error", err.Error()))
		firstErr = err
	}

	app.WebSocketHub.Shutdown()

	if err := app.OTelProviders.Shutdown(ctx); err != nil {
		app.Logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
		if firstErr == nil {
			firstErr = err
		}
	}

	infrastructure.CloseLogFile()
	return firstErr
}
