package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"esmconvert/internal/application/common/slogger"
	"esmconvert/internal/port/inbound"
)

const defaultShutdownTimeout = 15 * time.Second

// WorkerServiceConfig holds configuration for the worker service.
type WorkerServiceConfig struct {
	Concurrency     int
	QueueGroup      string
	ShutdownTimeout time.Duration
}

// DefaultWorkerService runs a pool of queue consumers and tracks their
// combined health. All consumers share one durable so JetStream spreads
// messages across them.
type DefaultWorkerService struct {
	config    WorkerServiceConfig
	consumers []inbound.Consumer

	mu        sync.RWMutex
	running   bool
	startTime time.Time
	lastError string
}

// NewDefaultWorkerService creates a worker service over a fixed set of
// consumers.
func NewDefaultWorkerService(
	config WorkerServiceConfig,
	consumers []inbound.Consumer,
) inbound.WorkerService {
	if len(consumers) == 0 {
		panic("at least one consumer is required")
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaultShutdownTimeout
	}
	return &DefaultWorkerService{
		config:    config,
		consumers: consumers,
	}
}

// Start brings up every consumer. If any consumer fails to start, the ones
// already running are stopped again and the error is returned.
func (w *DefaultWorkerService) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("worker service already running")
	}

	started := make([]inbound.Consumer, 0, len(w.consumers))
	for i, consumer := range w.consumers {
		if err := consumer.Start(ctx); err != nil {
			w.lastError = err.Error()
			w.stopAll(ctx, started)
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}
		started = append(started, consumer)
	}

	w.running = true
	w.startTime = time.Now()
	w.lastError = ""

	slogger.Info(ctx, "Worker service started", slogger.Fields{
		"consumers":   len(w.consumers),
		"queue_group": w.config.QueueGroup,
	})
	return nil
}

// Stop drains all consumers within the shutdown timeout. Stopping a stopped
// service is a no-op.
func (w *DefaultWorkerService) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, w.config.ShutdownTimeout)
	defer cancel()

	err := w.stopAll(stopCtx, w.consumers)
	w.running = false

	if err != nil {
		w.lastError = err.Error()
		return fmt.Errorf("failed to stop consumers: %w", err)
	}

	slogger.Info(ctx, "Worker service stopped", slogger.Fields{
		"consumers": len(w.consumers),
	})
	return nil
}

// Health returns the aggregated health of the service and its consumers.
func (w *DefaultWorkerService) Health() inbound.WorkerServiceHealthStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	details := make([]inbound.ConsumerHealthStatus, 0, len(w.consumers))
	healthy := 0
	for _, consumer := range w.consumers {
		health := consumer.Health()
		details = append(details, health)
		if health.IsRunning && health.IsConnected {
			healthy++
		}
	}

	status := inbound.WorkerServiceHealthStatus{
		IsRunning:        w.running,
		TotalConsumers:   len(w.consumers),
		HealthyConsumers: healthy,
		ConsumerDetails:  details,
		LastError:        w.lastError,
	}
	if w.running {
		status.ServiceUptime = time.Since(w.startTime)
	}
	return status
}

// stopAll stops the given consumers concurrently. Draining is the slow part
// of consumer shutdown, so serializing it would multiply the worst case by
// the pool size.
func (w *DefaultWorkerService) stopAll(ctx context.Context, consumers []inbound.Consumer) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, consumer := range consumers {
		g.Go(func() error {
			return consumer.Stop(gctx)
		})
	}
	return g.Wait()
}
