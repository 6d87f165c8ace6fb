package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingLimiter simulates an unavailable limiter backend.
type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (failingLimiter) Reset(ctx context.Context, identifier string) error {
	return errors.New("redis: connection refused")
}

func TestRateLimitMiddleware_AllowsWithinQuota(t *testing.T) {
	limiter := NewMemoryRateLimiter(2*time.Minute, zap.NewNop())
	rl := NewRateLimitMiddleware(limiter, 5, time.Minute, zap.NewNop())

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/weather/current?city=Mumbai", nil)
		req.Header.Set(APIKeyHeader, "client-a")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitMiddleware_RejectsOverQuota(t *testing.T) {
	limiter := NewMemoryRateLimiter(2*time.Minute, zap.NewNop())
	rl := NewRateLimitMiddleware(limiter, 2, time.Minute, zap.NewNop())

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/weather/current?city=Mumbai", nil)
		req.Header.Set(APIKeyHeader, "client-a")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	send()
	send()
	rec := send()

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Data   *struct{} `json:"data"`
		Errors []string  `json:"errors"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.Data)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "Limit exceeded: Maximum 2 requests allowed per 1m0s. Try again in 1 minute(s).", body.Errors[0])
}

// TestRateLimitMiddleware_IsolatesClients verifies one client exhausting its
// quota does not affect another.
func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	limiter := NewMemoryRateLimiter(2*time.Minute, zap.NewNop())
	rl := NewRateLimitMiddleware(limiter, 1, time.Minute, zap.NewNop())

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/weather/current?city=Mumbai", nil)
		req.Header.Set(APIKeyHeader, key)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	assert.Equal(t, http.StatusOK, send("client-a").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("client-a").Code)
	assert.Equal(t, http.StatusOK, send("client-b").Code)
}

func TestRateLimitMiddleware_FallsBackToClientIP(t *testing.T) {
	limiter := NewMemoryRateLimiter(2*time.Minute, zap.NewNop())
	rl := NewRateLimitMiddleware(limiter, 1, time.Minute, zap.NewNop())

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/weather/current?city=Mumbai", nil)
		req.RemoteAddr = addr

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5678").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234").Code)
}

// TestRateLimitMiddleware_FailsOpen verifies a broken limiter backend does not
// take the API down with it.
func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	rl := NewRateLimitMiddleware(failingLimiter{}, 1, time.Minute, zap.NewNop())

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/weather/current?city=Mumbai", nil)
	req.Header.Set(APIKeyHeader, "client-a")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
