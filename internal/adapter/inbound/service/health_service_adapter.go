// Package service adapts application health reporting to the inbound port.
// The adapter probes each dependency and folds the results into one status:
// a single failing dependency degrades the service, more than one marks it
// unhealthy.
package service

import (
	"context"
	"sync"
	"time"

	"esmconvert/internal/application/dto"
	"esmconvert/internal/port/inbound"
	"esmconvert/internal/port/outbound"
)

const (
	// healthCacheTTL bounds how often the database probe runs. The queue
	// check reads in-memory connection state and needs no caching.
	healthCacheTTL = 5 * time.Second

	// maxHealthyReconnects is how many reconnects the queue connection may
	// accumulate before it counts as unstable.
	maxHealthyReconnects = 10
)

// HealthServiceAdapter implements inbound.HealthService over the job store
// and the message publisher.
type HealthServiceAdapter struct {
	jobRepo          outbound.ConversionJobRepository
	messagePublisher outbound.MessagePublisher
	version          string

	cacheMutex  sync.RWMutex
	flightMutex sync.Mutex
	cachedDB    dto.DependencyStatus
	cachedDBAt  time.Time
}

// NewHealthServiceAdapter creates a new HealthServiceAdapter. Either
// dependency may be nil; its check is then skipped.
func NewHealthServiceAdapter(
	jobRepo outbound.ConversionJobRepository,
	messagePublisher outbound.MessagePublisher,
	version string,
) inbound.HealthService {
	return &HealthServiceAdapter{
		jobRepo:          jobRepo,
		messagePublisher: messagePublisher,
		version:          version,
	}
}

// GetHealth reports the service status with per-dependency detail.
func (h *HealthServiceAdapter) GetHealth(ctx context.Context) (*dto.HealthResponse, error) {
	response := &dto.HealthResponse{
		Status:       string(dto.HealthStatusHealthy),
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]dto.DependencyStatus),
	}

	if h.jobRepo != nil {
		status := h.checkDatabase(ctx)
		response.Dependencies["database"] = status
		escalate(response, status)
	}

	if h.messagePublisher != nil {
		status := h.checkQueue()
		response.Dependencies["nats"] = status
		escalate(response, status)
	}

	return response, nil
}

// checkDatabase probes the job store with a minimal list query. Results are
// cached so health polling does not add database load.
func (h *HealthServiceAdapter) checkDatabase(ctx context.Context) dto.DependencyStatus {
	if status, ok := h.cachedDatabaseStatus(); ok {
		return status
	}

	// Single flight: concurrent health requests wait for one probe.
	h.flightMutex.Lock()
	defer h.flightMutex.Unlock()

	if status, ok := h.cachedDatabaseStatus(); ok {
		return status
	}

	status := dto.DependencyStatus{Status: string(dto.HealthStatusHealthy)}
	if _, _, err := h.jobRepo.FindAll(ctx, outbound.ConversionJobFilters{Limit: 1, Offset: 0}); err != nil {
		status = dto.DependencyStatus{
			Status:  string(dto.HealthStatusUnhealthy),
			Message: "database connection failed",
		}
	}

	h.cacheMutex.Lock()
	h.cachedDB = status
	h.cachedDBAt = time.Now()
	h.cacheMutex.Unlock()

	return status
}

func (h *HealthServiceAdapter) cachedDatabaseStatus() (dto.DependencyStatus, bool) {
	h.cacheMutex.RLock()
	defer h.cacheMutex.RUnlock()

	if h.cachedDBAt.IsZero() || time.Since(h.cachedDBAt) > healthCacheTTL {
		return dto.DependencyStatus{}, false
	}
	return h.cachedDB, true
}

// checkQueue inspects the publisher's connection state. Publishers that do
// not expose health monitoring count as healthy.
func (h *HealthServiceAdapter) checkQueue() dto.DependencyStatus {
	healthPublisher, ok := h.messagePublisher.(outbound.MessagePublisherHealth)
	if !ok {
		return dto.DependencyStatus{Status: string(dto.HealthStatusHealthy)}
	}

	connection := healthPublisher.GetConnectionHealth()
	switch {
	case !connection.Connected:
		message := "NATS disconnected"
		if connection.LastError != "" {
			message += ": " + connection.LastError
		}
		return dto.DependencyStatus{Status: string(dto.HealthStatusUnhealthy), Message: message}
	case !connection.JetStreamEnabled:
		return dto.DependencyStatus{
			Status:  string(dto.HealthStatusUnhealthy),
			Message: "NATS JetStream not available",
		}
	case connection.Reconnects > maxHealthyReconnects:
		return dto.DependencyStatus{
			Status:  string(dto.HealthStatusUnhealthy),
			Message: "NATS unstable connection: too many reconnects",
		}
	default:
		return dto.DependencyStatus{Status: string(dto.HealthStatusHealthy)}
	}
}

// escalate folds one dependency result into the overall status: the first
// unhealthy dependency degrades the service, the second takes it down.
func escalate(response *dto.HealthResponse, dependency dto.DependencyStatus) {
	if dependency.Status != string(dto.HealthStatusUnhealthy) {
		return
	}
	if response.Status == string(dto.HealthStatusHealthy) {
		response.Status = string(dto.HealthStatusDegraded)
	} else {
		response.Status = string(dto.HealthStatusUnhealthy)
	}
}
