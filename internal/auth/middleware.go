package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	authlib "example.com/platform/libs/go/auth"
)

// Middleware enforces bearer-token authentication on incoming requests.
type Middleware struct {
	inner authlib.Middleware
}

// NewMiddleware constructs Middleware with validation config. Health checks,
// metrics scrapes and CORS preflights pass through unauthenticated.
func NewMiddleware(cfg Config) Middleware {
	return Middleware{inner: authlib.NewMiddleware(cfg, skipUnauthenticated, authlib.WithErrorWriter(writeUnauthorized))}
}

// Wrap attaches authentication handling to an http.Handler.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return m.inner.Wrap(next)
}

func skipUnauthenticated(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	switch r.URL.Path {
	case "/healthz", "/metrics":
		return true
	}
	return false
}

// writeUnauthorized answers with the same problem shape the API handlers use.
func writeUnauthorized(w http.ResponseWriter, _ *http.Request, err error) {
	detail := "invalid bearer token"
	if errors.Is(err, authlib.ErrMissingToken) {
		detail = "missing bearer token"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"type":   "unauthorized",
		"detail": detail,
	})
}
