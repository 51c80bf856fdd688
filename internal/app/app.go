package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/configurator/internal/asset"
	"github.com/utafrali/configurator/internal/auth"
	"github.com/utafrali/configurator/internal/catalog"
	"github.com/utafrali/configurator/internal/config"
	handler "github.com/utafrali/configurator/internal/handler/http"
	"github.com/utafrali/configurator/internal/service"
	"github.com/utafrali/configurator/pkg/health"
	"github.com/utafrali/configurator/pkg/httpclient"
	"github.com/utafrali/configurator/pkg/middleware"
	"github.com/utafrali/configurator/pkg/tracing"
)

// visitorTTL is how long an idle client keeps its rate limit bucket.
const visitorTTL = 10 * time.Minute

// App wires together all dependencies and runs the configurator service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	rateLimiter    *middleware.RateLimiter
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance: tracer, backend client with
// circuit breaker, services, scene and HTTP router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Backend client with retries and a circuit breaker.
	baseClient := httpclient.New(cfg.HTTPClientConfig())
	cbCfg := cfg.CircuitBreakerConfig("catalog-backend")
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(catalog.CircuitOpenFallback)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)

	catalogClient := catalog.NewClient(
		cbClient,
		cfg.BaseURL(),
		cfg.UploadEndpoint(),
		auth.ContextToken{Fallback: cfg.APIToken},
		logger,
	)
	catalogService := service.NewCatalogService(catalogClient, logger)

	// Asset hosts get their own breaker so a dead CDN cannot trip the catalog one.
	assetClient := httpclient.NewCircuitBreakerClient(baseClient, cfg.CircuitBreakerConfig("asset-host"), logger)
	scene := asset.NewSceneWithLimit(cfg.MaxSceneObjects)
	scene.Init()
	models := asset.NewManager(scene,
		asset.NewOBJLoader(assetClient).WithMaxBytes(cfg.MaxModelBytes()),
		asset.NewGLTFLoader(assetClient).WithMaxBytes(cfg.MaxModelBytes()),
		logger,
	)

	// Health checks with backend reachability.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("catalog-backend", health.TCPChecker(cfg.BaseURL()))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, visitorTTL, logger)

	router := handler.NewRouter(cfg, handler.Deps{
		Catalog:      catalogService,
		Models:       models,
		Health:       healthHandler,
		RateLimiter:  rateLimiter,
		TokenDecoder: auth.DecodeClaims,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("catalog backend configured",
		slog.String("base_url", cfg.BaseURL()),
		slog.String("upload_url", cfg.UploadEndpoint()),
	)

	return &App{
		cfg:            cfg,
		logger:         logger,
		httpServer:     httpServer,
		rateLimiter:    rateLimiter,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.rateLimiter.Stop()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application in order:
// 1. HTTP server (drain in-flight requests)
// 2. Rate limiter cleanup loop
// 3. Tracer (flush pending spans from drained requests)
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.rateLimiter.Stop()

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
