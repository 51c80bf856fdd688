package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/configurator/pkg/middleware"
)

// Claims is the payload of a backend-issued access token.
type Claims struct {
	CompanyID string `json:"companyId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// DecodeClaims reads the claims of token without verifying its signature.
// Tokens are issued and verified by the catalog backend; this service only
// needs the partner id they carry.
func DecodeClaims(token string) (*middleware.Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("decode token claims: %w", err)
	}

	return &middleware.Claims{
		Subject:   claims.Subject,
		CompanyID: claims.CompanyID,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

// TokenSource supplies the bearer token forwarded to the backend.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) string {
	return strings.TrimSpace(string(s))
}

// ContextToken returns the caller's bearer token from the request context,
// falling back to a configured service token.
type ContextToken struct {
	Fallback string
}

// Token implements TokenSource.
func (c ContextToken) Token(ctx context.Context) string {
	if token := middleware.TokenFromContext(ctx); token != "" {
		return token
	}
	return strings.TrimSpace(c.Fallback)
}
