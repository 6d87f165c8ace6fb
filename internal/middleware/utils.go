package middleware

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP resolves the address a request originated from, preferring the
// proxy-set headers over the socket's remote address.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// The first entry is the original client; later hops append.
		first := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])

		if net.ParseIP(first) != nil {
			return first
		}
	}

	if realIP := r.Header.Get("X-Real-IP"); net.ParseIP(realIP) != nil {
		return realIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}
