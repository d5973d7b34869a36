package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"casecount/internal/config"
	apierrors "casecount/internal/errors"
	"casecount/internal/infrastructure"
	customMiddleware "casecount/internal/middleware"
	"casecount/internal/services"
	handlers "casecount/internal/transport/http"
	"casecount/pkg/contracts"
)

// compressionLevel is the gzip level for HTML and JSON responses.
const compressionLevel = 5

// Application represents the main application container
type Application struct {
	Config          *config.Config
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	Metrics         *infrastructure.BusinessMetrics
	ErrorHandler    *apierrors.ErrorHandler
	ResultStore     *services.ResultStore
	AnalysisService *services.AnalysisService
	HealthService   *services.HealthService
}

// NewApplication wires every component from cfg. The caller owns logger.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", contracts.GetVersionString()),
		slog.String("version", contracts.Version),
		slog.String("environment", cfg.Telemetry.Environment))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		app.ResultStore.Close()
		otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	a.ResultStore = services.NewResultStore(
		a.Config.Results.TTL,
		a.Config.Results.Capacity,
		a.Config.Results.SweepInterval,
		services.WithStoreMetrics(metrics),
		services.WithStoreLogger(a.Logger),
	)
	a.AnalysisService = services.NewAnalysisService(a.ResultStore, metrics, a.OTelProviders.Tracer, a.Logger)
	a.HealthService = services.NewHealthService(a.ResultStore, a.Logger)
	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, a.isDevelopmentMode())

	a.Logger.Info("Services initialized",
		slog.Duration("results_ttl", a.Config.Results.TTL),
		slog.Int("results_capacity", a.Config.Results.Capacity),
		slog.Int64("upload_max_bytes", a.Config.Upload.MaxBytes))
	return nil
}

// setupRouter builds the router. Middleware order: RequestID, RealIP, OTel,
// Logger, Recoverer, Timeout, then security and CORS.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Prometheus scrape endpoint stays outside the full middleware group.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	var routeErr error
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(compressionLevel))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
		routeErr = a.setupHTMLRoutes(r)
	})
	if routeErr != nil {
		return routeErr
	}

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validate := customMiddleware.NewValidator()
	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler, handlers.MaxPayloadBytes)
	errorMiddleware := apierrors.NewErrorMiddleware(a.ErrorHandler, a.Logger)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	analysisHandler := handlers.NewAnalysisHandler(
		a.AnalysisService,
		handlers.NewJSONPresenter(a.ErrorHandler, "/api"),
		validate,
		a.Config.Upload.MaxBytes,
		a.Logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(errorMiddleware.Handler)

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Mount("/", analysisHandler.APIRoutes(
			customMiddleware.ContentTypeValidator(a.ErrorHandler, "application/json"),
			validation.ValidateJSON,
		))
	})
}

// setupHTMLRoutes mounts the default theme at the root and every theme under
// its own prefix.
func (a *Application) setupHTMLRoutes(r chi.Router) error {
	defaultTheme, err := handlers.ParseTheme(a.Config.Upload.DefaultTheme)
	if err != nil {
		return err
	}

	validate := customMiddleware.NewValidator()
	mount := func(pattern string, theme handlers.Theme) error {
		basePath := pattern
		if basePath == "/" {
			basePath = ""
		}
		presenter, err := handlers.NewHTMLPresenter(theme, basePath, a.ErrorHandler, a.Logger)
		if err != nil {
			return err
		}
		h := handlers.NewAnalysisHandler(a.AnalysisService, presenter, validate, a.Config.Upload.MaxBytes, a.Logger)
		r.Mount(pattern, h.HTMLRoutes())
		return nil
	}

	for _, theme := range handlers.Themes {
		if err := mount("/"+string(theme), theme); err != nil {
			return err
		}
	}
	return mount("/", defaultTheme)
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

func (a *Application) isDevelopmentMode() bool {
	return a.Config.Telemetry.Environment == "development"
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Addr(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Handler returns the root HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.Router
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening",
			slog.String("address", a.Server.Addr),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(gctx, "Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if err := a.ResultStore.Close(); err != nil {
		errs = append(errs, fmt.Errorf("result store close: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}
