package middleware

import (
	"context"

	"github.com/volunteerhub/backend/internal/auth/service"
)

type contextKey string

const claimsKey contextKey = "claims"

// WithClaims stores verified claims in the context
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext retrieves the verified claims attached by the authentication gate
func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.Claims)
	return claims, ok && claims != nil
}
