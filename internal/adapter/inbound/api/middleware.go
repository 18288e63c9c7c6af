package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"esmconvert/internal/application/common/slogger"
)

// NewCORSMiddleware adds CORS headers
func NewCORSMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Set CORS headers
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

			// Build allowed headers - start with defaults and add requested headers
			allowedHeaders := "Content-Type, Authorization"
			if requestedHeaders := r.Header.Get("Access-Control-Request-Headers"); requestedHeaders != "" {
				allowedHeaders += ", " + requestedHeaders
			}
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewRecoveryMiddleware recovers handler panics and responds 500. Panics
// reaching net/http would otherwise close the connection without a response.
func NewRecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slogger.Error(r.Context(), "Panic recovered in HTTP handler", slogger.Fields{
						"panic":  fmt.Sprintf("%v", rec),
						"method": r.Method,
						"path":   r.URL.Path,
					})

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error": "INTERNAL_ERROR", "message": "An internal error occurred"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersConfig defines configuration for the security headers middleware
type SecurityHeadersConfig struct {
	ReferrerPolicy string // "strict-origin-when-cross-origin", "no-referrer", etc.
	CSPPolicy      string // "basic", "comprehensive", or custom CSP string
	HStsEnabled    *bool  // Enable HSTS header (nil = use default)
	HStsMaxAge     int    // Max age for HSTS in seconds
	HStsSubdomains *bool  // Include subdomains in HSTS (nil = use default)
	HStsPreload    *bool  // Include preload in HSTS (nil = use default)
	XFrameOptions  string // "DENY", "SAMEORIGIN", etc.
	XContentType   string // "nosniff"
	XXSSProtection string // "1; mode=block", "0", etc.
}

// NewUnifiedSecurityMiddleware creates a configurable security headers middleware
func NewUnifiedSecurityMiddleware(config *SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Apply default values if config is nil or empty
			cfg := getSecurityConfig(config)

			// Set basic security headers
			if cfg.XContentType != "" {
				w.Header().Set("X-Content-Type-Options", cfg.XContentType)
			}
			if cfg.XFrameOptions != "" {
				w.Header().Set("X-Frame-Options", cfg.XFrameOptions)
			}
			if cfg.XXSSProtection != "" {
				w.Header().Set("X-XSS-Protection", cfg.XXSSProtection)
			}
			if cfg.ReferrerPolicy != "" {
				w.Header().Set("Referrer-Policy", cfg.ReferrerPolicy)
			}

			// Set CSP policy
			cspPolicy := getCSPPolicy(cfg.CSPPolicy)
			if cspPolicy != "" {
				w.Header().Set("Content-Security-Policy", cspPolicy)
			}

			// Set HSTS only if enabled and over HTTPS
			if cfg.HStsEnabled != nil && *cfg.HStsEnabled && r.TLS != nil {
				hstsValue := buildHSTSValue(cfg)
				w.Header().Set("Strict-Transport-Security", hstsValue)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getSecurityConfig returns a config with default values applied
func getSecurityConfig(config *SecurityHeadersConfig) *SecurityHeadersConfig {
	cfg := SecurityHeadersConfig{}
	if config != nil {
		cfg = *config
	}

	// Apply defaults for empty values
	if cfg.ReferrerPolicy == "" {
		cfg.ReferrerPolicy = "strict-origin-when-cross-origin"
	}
	if cfg.CSPPolicy == "" {
		cfg.CSPPolicy = "basic"
	}
	if cfg.XFrameOptions == "" {
		cfg.XFrameOptions = "DENY"
	}
	if cfg.XContentType == "" {
		cfg.XContentType = "nosniff"
	}
	if cfg.XXSSProtection == "" {
		cfg.XXSSProtection = "1; mode=block"
	}
	// HSTS defaults
	if cfg.HStsMaxAge == 0 {
		cfg.HStsMaxAge = 31536000 // 1 year
	}
	if cfg.HStsEnabled == nil {
		cfg.HStsEnabled = boolPtr(true)
	}
	if cfg.HStsSubdomains == nil {
		cfg.HStsSubdomains = boolPtr(true)
	}
	if cfg.HStsPreload == nil {
		cfg.HStsPreload = boolPtr(false)
	}

	return &cfg
}

// boolPtr is a helper function to create bool pointers
func boolPtr(b bool) *bool {
	return &b
}

// getCSPPolicy returns the appropriate CSP policy based on configuration
func getCSPPolicy(policy string) string {
	switch policy {
	case "basic", "":
		return "default-src 'self'"
	case "comprehensive":
		return "default-src 'self'; script-src 'self'; object-src 'none'"
	default:
		// Custom CSP string
		return policy
	}
}

// buildHSTSValue constructs the HSTS header value based on configuration
func buildHSTSValue(cfg *SecurityHeadersConfig) string {
	parts := []string{"max-age=" + strconv.Itoa(cfg.HStsMaxAge)}

	if cfg.HStsSubdomains != nil && *cfg.HStsSubdomains {
		parts = append(parts, "includeSubDomains")
	}
	if cfg.HStsPreload != nil && *cfg.HStsPreload {
		parts = append(parts, "preload")
	}

	return strings.Join(parts, "; ")
}

// NewSecurityMiddleware adds the default security headers
func NewSecurityMiddleware() func(http.Handler) http.Handler {
	// Delegate to unified implementation with default config
	return NewUnifiedSecurityMiddleware(nil)
}
