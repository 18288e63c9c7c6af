package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"esmconvert/internal/adapter/inbound/api/util"

	"github.com/google/uuid"
)

// middlewareContextKey is a dedicated type for context keys so values set
// here cannot collide with keys from other packages.
type middlewareContextKey string

// CorrelationIDKey carries the request correlation ID through the context.
const CorrelationIDKey middlewareContextKey = "correlation_id"

const (
	correlationIDHeader    = "X-Correlation-ID"
	maxCorrelationIDLength = 200
	slowRequestThreshold   = 1 * time.Second
)

// HTTPLogEntry is the JSON shape emitted for each completed request.
type HTTPLogEntry struct {
	Timestamp     time.Time              `json:"timestamp"`
	Level         string                 `json:"level"`
	Message       string                 `json:"message"`
	CorrelationID string                 `json:"correlation_id"`
	Component     string                 `json:"component"`
	Operation     string                 `json:"operation"`
	Request       map[string]interface{} `json:"request,omitempty"`
	Response      map[string]interface{} `json:"response,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Duration      float64                `json:"duration_ms"`
}

// LoggingConfig controls what the logging middleware records.
type LoggingConfig struct {
	// Output receives one JSON log entry per line. Defaults to os.Stdout.
	Output io.Writer
	// LogRequestBody includes the request body in log entries when true.
	// Bodies are truncated to MaxBodySize.
	LogRequestBody bool
	// LogResponseBody includes the response body in log entries when true.
	LogResponseBody bool
	// MaxBodySize caps logged body sizes in bytes.
	MaxBodySize int
	// SkipPaths lists URL paths that should not be logged, such as
	// health check endpoints polled by orchestrators.
	SkipPaths []string
}

// DefaultLoggingConfig returns the configuration used by the API server.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Output:          os.Stdout,
		LogRequestBody:  false,
		LogResponseBody: false,
		MaxBodySize:     4096,
		SkipPaths:       []string{"/health"},
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code and
// response size for the log entry.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	body        *strings.Builder
	captureBody bool
	maxBodySize int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.captureBody && rw.body.Len() < rw.maxBodySize {
		remaining := rw.maxBodySize - rw.body.Len()
		if remaining > len(b) {
			remaining = len(b)
		}
		rw.body.Write(b[:remaining])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// LoggingMiddleware logs each HTTP request as a structured JSON entry and
// ensures every request carries a correlation ID. The correlation ID is
// taken from the X-Correlation-ID header when present and valid, generated
// otherwise, echoed back on the response, and stored in the request context
// for downstream handlers and loggers.
type LoggingMiddleware struct {
	config LoggingConfig
	mu     sync.Mutex
}

// NewLoggingMiddleware creates a logging middleware with the given config.
// A nil Output falls back to os.Stdout.
func NewLoggingMiddleware(config LoggingConfig) *LoggingMiddleware {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 4096
	}
	return &LoggingMiddleware{config: config}
}

// Handler wraps next with request logging and panic recovery.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := m.extractOrGenerateCorrelationID(r)
		ctx := context.WithValue(r.Context(), CorrelationIDKey, correlationID)
		r = r.WithContext(ctx)
		w.Header().Set(correlationIDHeader, correlationID)

		if m.shouldSkip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &strings.Builder{},
			captureBody:    m.config.LogResponseBody,
			maxBodySize:    m.config.MaxBodySize,
		}

		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				duration := time.Since(start)
				m.writeEntry(m.buildEntry(r, rw, correlationID, duration, fmt.Sprintf("panic: %v", rec)))
				if !rw.wroteHeader {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error": "Internal server error"}`))
				}
			}
		}()

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		m.writeEntry(m.buildEntry(r, rw, correlationID, duration, ""))
	})
}

func (m *LoggingMiddleware) extractOrGenerateCorrelationID(r *http.Request) string {
	if id := r.Header.Get(correlationIDHeader); isValidCorrelationID(id) {
		return id
	}
	return uuid.New().String()
}

// isValidCorrelationID accepts non-empty IDs of at most 200 characters built
// from alphanumerics, hyphens, and underscores. Anything else is replaced so
// arbitrary client input never flows into log output verbatim.
func isValidCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLength {
		return false
	}
	for _, c := range id {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum && c != '-' && c != '_' {
			return false
		}
	}
	return true
}

func (m *LoggingMiddleware) shouldSkip(path string) bool {
	for _, p := range m.config.SkipPaths {
		if path == p {
			return true
		}
	}
	return false
}

func (m *LoggingMiddleware) buildEntry(
	r *http.Request,
	rw *responseWriter,
	correlationID string,
	duration time.Duration,
	errMsg string,
) HTTPLogEntry {
	durationMS := float64(duration.Nanoseconds()) / 1e6

	entry := HTTPLogEntry{
		Timestamp:     time.Now().UTC(),
		Level:         determineLogLevel(rw.statusCode, duration, errMsg),
		Message:       fmt.Sprintf("%s %s %d", r.Method, r.URL.Path, rw.statusCode),
		CorrelationID: correlationID,
		Component:     "http-middleware",
		Operation:     "http_request",
		Duration:      durationMS,
		Error:         errMsg,
	}

	entry.Request = map[string]interface{}{
		"method":     r.Method,
		"path":       r.URL.Path,
		"query":      r.URL.RawQuery,
		"client_ip":  util.ClientIP(r),
		"user_agent": r.UserAgent(),
	}

	entry.Response = map[string]interface{}{
		"status_code": rw.statusCode,
		"size_bytes":  rw.size,
	}
	if duration > slowRequestThreshold {
		entry.Response["slow_request"] = true
	}
	if m.config.LogResponseBody && rw.body.Len() > 0 {
		entry.Response["body"] = rw.body.String()
	}

	return entry
}

// determineLogLevel maps the response to a severity: server errors and
// panics are ERROR, timeouts and slow requests are WARN, everything else
// including client errors is INFO.
func determineLogLevel(statusCode int, duration time.Duration, errMsg string) string {
	switch {
	case errMsg != "" || statusCode >= http.StatusInternalServerError:
		return "ERROR"
	case statusCode == http.StatusRequestTimeout || duration > slowRequestThreshold:
		return "WARN"
	default:
		return "INFO"
	}
}

func (m *LoggingMiddleware) writeEntry(entry HTTPLogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, _ = m.config.Output.Write(append(data, '\n'))
}

// GetCorrelationIDFromContext returns the correlation ID stored by the
// logging middleware, or empty string when none is present.
func GetCorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}
