package auth

import (
	"net/http"
	"strings"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// ErrorWriter renders an authentication failure. err is ErrMissingToken or
// wraps ErrInvalidToken.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// MiddlewareOption customises a Middleware.
type MiddlewareOption func(*Middleware)

// WithErrorWriter replaces the plain-text 401 response.
func WithErrorWriter(fn ErrorWriter) MiddlewareOption {
	return func(m *Middleware) {
		m.OnError = fn
	}
}

// Middleware provides HTTP middleware for bearer-token validation.
type Middleware struct {
	Config  Config
	Skipper Skipper
	OnError ErrorWriter
}

// NewMiddleware constructs a middleware with an optional skipper.
func NewMiddleware(cfg Config, skipper Skipper, opts ...MiddlewareOption) Middleware {
	m := Middleware{Config: cfg, Skipper: skipper, OnError: plainError}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Wrap wraps an http.Handler with authentication.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skipper != nil && m.Skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := BearerToken(r)
		var claims *Claims
		if err == nil {
			claims, err = Parse(token, m.Config)
		}
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="platform"`)
			m.OnError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

func plainError(w http.ResponseWriter, _ *http.Request, err error) {
	http.Error(w, err.Error(), http.StatusUnauthorized)
}
