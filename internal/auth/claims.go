// Package auth adapts the platform bearer-token library to the rollup API.
package auth

import (
	"context"

	authlib "example.com/platform/libs/go/auth"
)

// Claims is the validated token payload.
type Claims = authlib.Claims

// Config carries the token verification settings.
type Config = authlib.Config

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return authlib.WithClaims(ctx, claims)
}

// FromContext returns the claims attached by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	return authlib.FromContext(ctx)
}
