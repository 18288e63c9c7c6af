// Package util provides utility functions for the API layer.
package util

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP address from an HTTP request. Proxy headers
// win over the socket address: X-Forwarded-For (first valid IP), then
// X-Real-IP, then RemoteAddr with any port stripped.
func ClientIP(r *http.Request) string {
	if r == nil {
		panic("request cannot be nil")
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, ip := range strings.Split(xff, ",") {
			ip = strings.TrimSpace(ip)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	if r.RemoteAddr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	// RemoteAddr without a port: possibly a bare IPv6 in brackets.
	return strings.Trim(r.RemoteAddr, "[]")
}
