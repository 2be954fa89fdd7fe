package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopeHelpers(t *testing.T) {
	writer := &Claims{Subject: "1", Scopes: map[string]struct{}{ScopeActivitiesWrite: {}}}
	reader := &Claims{Subject: "2", Scopes: map[string]struct{}{ScopeActivitiesRead: {}}}
	none := &Claims{Subject: "3", Scopes: map[string]struct{}{}}

	require.True(t, CanWrite(writer))
	require.True(t, CanRead(writer))
	require.False(t, CanWrite(reader))
	require.True(t, CanRead(reader))
	require.False(t, CanRead(none))
	require.False(t, CanRead(nil))
}

func TestMiddlewareSkipsProbes(t *testing.T) {
	mw := NewMiddleware(Config{Secret: "secret", Issuer: "test"})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := mw.Wrap(next)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/healthz", nil),
		httptest.NewRequest(http.MethodGet, "/metrics", nil),
		httptest.NewRequest(http.MethodOptions, "/v1/activity/daily", nil),
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, req.URL.Path)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activity/daily/1", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsWithProblemBody(t *testing.T) {
	handler := NewMiddleware(Config{Secret: "secret", Issuer: "test"}).Wrap(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/activity/monthly/4", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"type":"unauthorized","detail":"invalid bearer token"}`, rec.Body.String())
}
