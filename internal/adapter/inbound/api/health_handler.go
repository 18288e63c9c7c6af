package api

import (
	"fmt"
	"net/http"
	"time"

	"esmconvert/internal/application/dto"
	"esmconvert/internal/port/inbound"
)

const (
	// Unit conversion constants.
	nanosecondsToMilliseconds = 1e6
)

// HealthHandler handles HTTP requests for health check operations.
type HealthHandler struct {
	healthService inbound.HealthService
	errorHandler  ErrorHandler
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(healthService inbound.HealthService, errorHandler ErrorHandler) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
		errorHandler:  errorHandler,
	}
}

// GetHealth handles GET /health. A degraded service still reports 200; only
// a fully unhealthy service reports 503.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	response, err := h.healthService.GetHealth(r.Context())
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}

	w.Header().Set(
		"X-Health-Check-Duration",
		fmt.Sprintf("%.2fms", float64(time.Since(start).Nanoseconds())/nanosecondsToMilliseconds),
	)

	statusCode := http.StatusOK
	if response.Status == string(dto.HealthStatusUnhealthy) {
		statusCode = http.StatusServiceUnavailable
	}

	if writeErr := WriteJSON(w, statusCode, response); writeErr != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Health check response encoding failed"))
	}
}
