// Package inbound defines the inbound ports (interfaces) for the application layer.
// These ports represent the entry points into the application's core business logic.
package inbound

import (
	"context"

	"esmconvert/internal/application/dto"

	"github.com/google/uuid"
)

// TransformService defines the inbound port for synchronous conversions.
type TransformService interface {
	Transform(ctx context.Context, request dto.TransformRequest) (*dto.TransformResponse, error)
}

// JobService defines the inbound port for asynchronous conversion jobs.
type JobService interface {
	SubmitJob(ctx context.Context, request dto.SubmitJobRequest) (*dto.SubmitJobResponse, error)
	GetJob(ctx context.Context, id uuid.UUID) (*dto.ConversionJobResponse, error)
	ListJobs(ctx context.Context, query dto.ConversionJobListQuery) (*dto.ConversionJobListResponse, error)
}

// HealthService defines the inbound port for health check operations.
type HealthService interface {
	GetHealth(ctx context.Context) (*dto.HealthResponse, error)
}
