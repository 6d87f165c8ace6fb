package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// APIKeyHeader is the header clients present their gateway key in.
const APIKeyHeader = "X-API-KEY"

// APIKeyAuth gates requests on an allow-listed gateway API key.
// The allow-list is injected at construction; the middleware holds no global
// state and never re-reads configuration at request time.
type APIKeyAuth struct {
	keys   []string
	logger *zap.Logger
}

// NewAPIKeyAuth creates the API-key authentication middleware.
//
// Parameters:
//   - keys: allow-listed gateway API keys
//   - logger: Zap logger for rejected requests
//
// Returns:
//   - *APIKeyAuth: configured middleware instance
func NewAPIKeyAuth(keys []string, logger *zap.Logger) *APIKeyAuth {
	return &APIKeyAuth{
		keys:   keys,
		logger: logger,
	}
}

// Middleware short-circuits with 401 when the key is missing or not in the
// allow-list. Key comparison ignores case.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(APIKeyHeader)

		if presented == "" {
			a.logger.Warn("request without API key",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr))

			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("MISSING API KEY"))

			return
		}

		if !a.allowed(presented) {
			a.logger.Warn("request with invalid API key",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr))

			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("INVALID API KEY"))

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *APIKeyAuth) allowed(presented string) bool {
	for _, key := range a.keys {
		if strings.EqualFold(key, presented) {
			return true
		}
	}

	return false
}
