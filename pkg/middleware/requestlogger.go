package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/configurator/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context, enriched with
// correlation_id, partner_id, trace_id and span_id. Mount it after
// RequestLogging, Tracing and Bearer so those values are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if claims := ClaimsFromContext(ctx); claims != nil && claims.CompanyID != "" {
				ctx = logger.WithPartnerID(ctx, claims.CompanyID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
