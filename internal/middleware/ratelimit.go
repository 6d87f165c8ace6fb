package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openwx/weather-gateway/internal/core/ports"
)

// RateLimitMiddleware gates requests on a per-client request quota.
// Clients are identified by their gateway API key when present, falling back
// to the client IP for unauthenticated routes.
type RateLimitMiddleware struct {
	service ports.RateLimitService
	limit   int
	window  time.Duration
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates the rate-limiting middleware.
//
// Parameters:
//   - service: backing limiter (Redis or memory)
//   - limit: maximum requests allowed per window
//   - window: length of the rate-limit window
//   - logger: Zap logger for limiter events
//
// Returns:
//   - *RateLimitMiddleware: configured middleware instance
func NewRateLimitMiddleware(service ports.RateLimitService, limit int, window time.Duration, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		service: service,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

// Middleware rejects over-quota clients with 429, a Retry-After header, and
// the standard {data, errors} envelope. Limiter backend errors fail open so
// an unavailable Redis never takes the API down with it.
func (m *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := r.Header.Get(APIKeyHeader)

		if identifier == "" {
			identifier = GetClientIP(r)
		}

		allowed, err := m.service.Allow(r.Context(), identifier, m.limit, m.window)

		if err != nil {
			m.logger.Error("rate limiter unavailable, allowing request",
				zap.String("identifier", identifier),
				zap.Error(err))

			next.ServeHTTP(w, r)

			return
		}

		if !allowed {
			m.logger.Warn("rate limit exceeded",
				zap.String("identifier", identifier),
				zap.Int("limit", m.limit),
				zap.Duration("window", m.window))

			m.respondQuotaExceeded(w)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) respondQuotaExceeded(w http.ResponseWriter) {
	retryAfter := int(m.window.Seconds())

	message := fmt.Sprintf("Limit exceeded: Maximum %d requests allowed per %s. Try again in %d minute(s).",
		m.limit, m.window, retryAfter/60)

	body := struct {
		Data   *struct{} `json:"data"`
		Errors []string  `json:"errors"`
	}{
		Errors: []string{message},
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		m.logger.Error("failed to encode rate limit response", zap.Error(err))
	}
}
