package inbound

import (
	"context"
	"time"

	"esmconvert/internal/domain/messaging"
)

// WorkerService manages the consumer pool and job processing lifecycle.
type WorkerService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health() WorkerServiceHealthStatus
}

// Consumer pulls conversion messages from the queue and hands them to a
// JobProcessor.
type Consumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health() ConsumerHealthStatus
	QueueGroup() string
	Subject() string
	DurableName() string
}

// JobProcessor executes one queued conversion end to end: load the job, mark
// it running, convert, persist the outcome.
type JobProcessor interface {
	ProcessJob(ctx context.Context, message messaging.ConversionJobMessage) error
	GetMetrics() JobProcessorMetrics
}

// WorkerServiceHealthStatus represents the health of the worker service.
type WorkerServiceHealthStatus struct {
	IsRunning        bool                   `json:"is_running"`
	TotalConsumers   int                    `json:"total_consumers"`
	HealthyConsumers int                    `json:"healthy_consumers"`
	ConsumerDetails  []ConsumerHealthStatus `json:"consumer_details"`
	ServiceUptime    time.Duration          `json:"service_uptime"`
	LastError        string                 `json:"last_error,omitempty"`
}

// ConsumerHealthStatus represents the health of one consumer.
type ConsumerHealthStatus struct {
	IsRunning       bool      `json:"is_running"`
	IsConnected     bool      `json:"is_connected"`
	LastMessageTime time.Time `json:"last_message_time"`
	MessagesHandled int64     `json:"messages_handled"`
	ErrorCount      int64     `json:"error_count"`
	LastError       string    `json:"last_error,omitempty"`
	QueueGroup      string    `json:"queue_group"`
	Subject         string    `json:"subject"`
}

// JobProcessorMetrics represents cumulative job processor counters.
type JobProcessorMetrics struct {
	TotalJobsProcessed    int64         `json:"total_jobs_processed"`
	TotalJobsFailed       int64         `json:"total_jobs_failed"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	BytesConverted        int64         `json:"bytes_converted"`
}
