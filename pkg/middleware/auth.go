package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKeyType string

const (
	tokenKey  contextKeyType = "bearer_token"
	claimsKey contextKeyType = "claims"
)

// Claims are the bearer-token claims the service reads. Tokens are issued and
// verified by the catalog backend; this service only decodes them.
type Claims struct {
	Subject   string
	CompanyID string
	Email     string
	Role      string
}

// TokenDecoder turns a raw bearer token into Claims.
type TokenDecoder func(token string) (*Claims, error)

// Bearer reads an optional "Authorization: Bearer <token>" header. When
// present the raw token and its decoded claims are stored in context; a
// malformed header or undecodable token is rejected with 401. Requests
// without the header pass through untouched.
func Bearer(decode TokenDecoder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
				return
			}

			claims, err := decode(token)
			if err != nil {
				logger.WarnContext(r.Context(), "undecodable bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, token)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireToken rejects requests that did not carry a bearer token.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TokenFromContext(r.Context()) == "" {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromContext returns the raw bearer token, or "".
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey).(string); ok {
		return token
	}
	return ""
}

// ClaimsFromContext returns the decoded claims, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsKey).(*Claims); ok {
		return claims
	}
	return nil
}

// WithToken returns a copy of ctx carrying token and claims, as Bearer does.
func WithToken(ctx context.Context, token string, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, tokenKey, token)
	return context.WithValue(ctx, claimsKey, claims)
}
