package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"stflow/internal/config"
	"stflow/internal/dataset"
	apierrors "stflow/internal/errors"
	"stflow/internal/infrastructure"
	customMiddleware "stflow/internal/middleware"
	handlers "stflow/internal/transport/http"
	"stflow/pkg/contracts"
)

// AppName is reported in startup logs
const AppName = "stflow sample server"

// runtimeInterval is how often the runtime gauges are refreshed
const runtimeInterval = 15 * time.Second

// Application represents the sample server
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger // single slog instance shared by every component
	OTelProviders *infrastructure.OTelProviders
	HTTPMetrics   *infrastructure.HTTPMetrics
	Runtime       *infrastructure.RuntimeCollector
	Dataset       handlers.DatasetService

	errorHandler *apierrors.ErrorHandler

	mu       sync.Mutex
	listener net.Listener
}

// NewApplication wires the router and server around an already built dataset.
// A nil providers value serves without telemetry.
func NewApplication(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders, ds handlers.DatasetService) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if ds == nil {
		return nil, errors.New("dataset is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	metrics, err := infrastructure.CreateHTTPMetrics(providers.MeterOrGlobal())
	if err != nil {
		return nil, fmt.Errorf("failed to create http metrics: %w", err)
	}
	runtimeCollector, err := infrastructure.NewRuntimeCollector(providers.MeterOrGlobal(), runtimeInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		HTTPMetrics:   metrics,
		Runtime:       runtimeCollector,
		Dataset:       ds,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// Bootstrap loads the configuration at configPath and builds everything the
// server needs: logger, telemetry and the dataset in its configured mode
func Bootstrap(ctx context.Context, configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.GetVersionString()),
		slog.String("dataset_root", cfg.Dataset.Root))

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	ds, err := dataset.Open(ctx, cfg.Dataset.Options(),
		dataset.WithLogger(logger),
		dataset.WithMeter(providers.MeterOrGlobal()),
		dataset.WithTracer(providers.TracerOrGlobal()),
	)
	if err != nil {
		providers.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	if err := cfg.Dataset.ApplyMode(ds); err != nil {
		providers.Shutdown(ctx)
		return nil, fmt.Errorf("failed to apply dataset mode: %w", err)
	}

	return NewApplication(cfg, logger, providers, ds)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID must come first so that every log line and problem carries it
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(a.errorHandler.Recoverer)

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → Recoverer → OTel → Logger → headers → rate limit
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.HTTPMetrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Server.AllowedOrigins,
			ExposedHeaders: []string{customMiddleware.RequestIDHeader},
			Logger:         a.Logger,
		}))

		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
				a.errorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus scrapes stay out of the rate limit and the request metrics
	if a.OTelProviders != nil && a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	health := handlers.NewHealthHandler(a.Dataset, a.Runtime, a.Logger)
	datasetHandler := handlers.NewDatasetHandler(a.Dataset, handlers.DatasetHandlerConfig{
		Logger:         a.Logger,
		ErrorHandler:   a.errorHandler,
		Metrics:        a.HTTPMetrics,
		WebSocket:      a.Config.Server.WebSocket,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		RequestTimeout: a.Config.Server.RequestTimeout,
	})

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/healthz", health.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/version", health.Version)
		r.Mount("/dataset", datasetHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Addr returns the address the server listens on, once started
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Start binds the listener and serves in the background. A serve error
// after startup calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.mu.Lock()
	a.listener = listener
	a.mu.Unlock()

	go a.Runtime.Start(ctx)

	go func() {
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// signal shutdown through the context instead of os.Exit
			cancel()
		}
	}()

	a.performStartupHealthCheck(ctx)

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", listener.Addr().String()))
	return nil
}

// performStartupHealthCheck logs what is being served and warns when there is nothing to serve
func (a *Application) performStartupHealthCheck(ctx context.Context) {
	view := a.Dataset.View()
	a.Logger.InfoContext(ctx, "Serving dataset",
		slog.String("mode", view.Mode().String()),
		slog.Int("samples", view.Len()))
	if view.Len() == 0 {
		a.Logger.WarnContext(ctx, "Dataset has no samples in the active mode",
			slog.String("mode", view.Mode().String()))
	}
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.Runtime.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until SIGINT or SIGTERM
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.RunContext(ctx)
}

// RunContext serves until ctx is done, then shuts down
func (a *Application) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}
