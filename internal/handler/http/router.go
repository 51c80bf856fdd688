package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/configurator/internal/asset"
	"github.com/utafrali/configurator/internal/config"
	"github.com/utafrali/configurator/internal/service"
	"github.com/utafrali/configurator/pkg/health"
	"github.com/utafrali/configurator/pkg/middleware"
)

// ServiceName labels metrics, traces and logs of this service.
const ServiceName = "configurator"

// Deps are the collaborators the router needs.
type Deps struct {
	Catalog      *service.CatalogService
	Models       *asset.Manager
	Health       *health.Handler
	RateLimiter  *middleware.RateLimiter
	TokenDecoder middleware.TokenDecoder
}

// NewRouter creates a chi router with all configurator routes registered.
func NewRouter(cfg *config.Config, deps Deps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigin

	// Global middleware stack (applied in order).
	r.Use(middleware.CORS(corsCfg))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware)
	}
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.Bearer(deps.TokenDecoder, logger))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())

	// Metrics endpoint with IP allowlist protection.
	r.With(middleware.IPAllowlist(cfg.MetricsAllowedCIDRs, logger)).Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	// Rotation relay. Kept outside the compress and timeout middleware so the
	// connection can be hijacked and stay open.
	r.Method(http.MethodGet, "/ws/rotate", NewRotateHandler(cfg.CORSAllowedOrigin, logger))

	catalogHandler := NewCatalogHandler(deps.Catalog, logger)
	productHandler := NewProductHandler(deps.Catalog, cfg.MaxUploadBytes(), logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(cfg.RequestTimeout))

		r.Route("/partners/{partnerId}", func(r chi.Router) {
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/product-types", catalogHandler.ListProductTypes)
			r.Get("/colors", catalogHandler.ListColors)
			r.Get("/color-options", catalogHandler.ListColorOptions)
			r.Get("/catalog", catalogHandler.GetCatalog)
		})

		// Writes, uploads and scene access require a caller token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken)

			r.Post("/products/2d", productHandler.Create2DProduct)
			r.Post("/products/3d", productHandler.Create3DProduct)
			r.Post("/uploads", productHandler.UploadImage)

			if deps.Models != nil {
				sceneHandler := NewSceneHandler(deps.Models, logger)
				r.Get("/scene", sceneHandler.ListObjects)
				r.Post("/scene/models", sceneHandler.LoadModel)
			}
		})
	})

	return r
}
