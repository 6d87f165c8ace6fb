package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAPIKeyAuth_Middleware(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		expectedStatus int
		expectedBody   string
		passedThrough  bool
	}{
		{
			name:           "allow-listed key passes",
			key:            "valid-key",
			expectedStatus: http.StatusOK,
			expectedBody:   "ok",
			passedThrough:  true,
		},
		{
			name:           "key comparison ignores case",
			key:            "VALID-KEY",
			expectedStatus: http.StatusOK,
			expectedBody:   "ok",
			passedThrough:  true,
		},
		{
			name:           "missing key is rejected",
			key:            "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "MISSING API KEY",
		},
		{
			name:           "unknown key is rejected",
			key:            "wrong-key",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "INVALID API KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAPIKeyAuth([]string{"valid-key", "other-key"}, zap.NewNop())

			var reached bool

			handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				_, _ = w.Write([]byte("ok"))
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/weather/current?city=Mumbai", nil)

			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedBody, rec.Body.String())
			assert.Equal(t, tt.passedThrough, reached)
		})
	}
}

func TestAPIKeyAuth_EmptyAllowList(t *testing.T) {
	auth := NewAPIKeyAuth(nil, zap.NewNop())

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/weather/current", nil)
	req.Header.Set(APIKeyHeader, "any-key")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID API KEY", rec.Body.String())
}
