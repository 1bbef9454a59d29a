package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, max int64) Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	lim, err := New(client, time.Minute, max, "test-ratelimit")
	require.NoError(t, err)
	return Handler{Limiter: lim, Key: func(*http.Request) string { return "client-1" }}
}

func doRequest(handler http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-payment-intent", nil))
	return rec
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	h := newHandler(t, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	wrapped := h.Middleware(next)

	require.Equal(t, http.StatusOK, doRequest(wrapped).Code)
	require.Equal(t, http.StatusOK, doRequest(wrapped).Code)

	rec := doRequest(wrapped)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestMiddlewareSetsHeaders(t *testing.T) {
	h := newHandler(t, 5)
	wrapped := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := doRequest(wrapped)
	require.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestMiddlewareNilLimiterPassesThrough(t *testing.T) {
	wrapped := Handler{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	require.Equal(t, http.StatusOK, doRequest(wrapped).Code)
}
