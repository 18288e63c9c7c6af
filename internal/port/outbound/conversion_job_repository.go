package outbound

import (
	"context"

	"esmconvert/internal/domain/entity"
	"esmconvert/internal/domain/messaging"
	"esmconvert/internal/domain/valueobject"

	"github.com/google/uuid"
)

// ConversionJobRepository defines the outbound port for conversion job persistence.
type ConversionJobRepository interface {
	Save(ctx context.Context, job *entity.ConversionJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ConversionJob, error)
	FindAll(ctx context.Context, filters ConversionJobFilters) ([]*entity.ConversionJob, int, error)
	Update(ctx context.Context, job *entity.ConversionJob) error
}

// ConversionJobFilters represents filters for conversion job queries.
type ConversionJobFilters struct {
	Status *valueobject.JobStatus
	Limit  int
	Offset int
}

// MessagePublisher defines the outbound port for publishing conversion jobs
// to the queue.
type MessagePublisher interface {
	PublishConversionJob(ctx context.Context, message messaging.ConversionJobMessage) error
}

// MessagePublisherHealth defines health monitoring capabilities for message publishers.
type MessagePublisherHealth interface {
	GetConnectionHealth() MessagePublisherHealthStatus
}

// MessagePublisherHealthStatus represents the health status of a message publisher.
type MessagePublisherHealthStatus struct {
	Connected        bool   `json:"connected"`
	LastError        string `json:"last_error,omitempty"`
	Uptime           string `json:"uptime"`
	Reconnects       int    `json:"reconnects"`
	JetStreamEnabled bool   `json:"jetstream_enabled"`
}
