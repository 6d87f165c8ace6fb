package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name          string
		remoteAddr    string
		xForwardedFor string
		xRealIP       string
		expected      string
	}{
		{
			name:       "remote address with port",
			remoteAddr: "10.0.0.1:52431",
			expected:   "10.0.0.1",
		},
		{
			name:          "first forwarded address wins",
			remoteAddr:    "10.0.0.1:52431",
			xForwardedFor: "203.0.113.7, 198.51.100.2",
			expected:      "203.0.113.7",
		},
		{
			name:       "real IP header",
			remoteAddr: "10.0.0.1:52431",
			xRealIP:    "203.0.113.7",
			expected:   "203.0.113.7",
		},
		{
			name:          "invalid forwarded value falls through",
			remoteAddr:    "10.0.0.1:52431",
			xForwardedFor: "not-an-ip",
			expected:      "10.0.0.1",
		},
		{
			name:       "remote address without port",
			remoteAddr: "10.0.0.1",
			expected:   "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr

			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}

			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}
