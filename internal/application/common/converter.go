package common

import (
	"esmconvert/internal/application/dto"
	"esmconvert/internal/domain/entity"
)

// EntityToConversionJobResponse converts a conversion job entity to response DTO.
func EntityToConversionJobResponse(job *entity.ConversionJob) *dto.ConversionJobResponse {
	response := &dto.ConversionJobResponse{
		ID:           job.ID(),
		ModulePath:   job.ModulePath(),
		Status:       job.Status().String(),
		Output:       job.Output(),
		ErrorMessage: job.ErrorMessage(),
		StartedAt:    job.StartedAt(),
		CompletedAt:  job.CompletedAt(),
		CreatedAt:    job.CreatedAt(),
		UpdatedAt:    job.UpdatedAt(),
	}

	if d := job.Duration(); d != nil {
		durationStr := d.String()
		response.Duration = &durationStr
	}

	return response
}

// CreatePaginationResponse creates a standardized pagination response.
func CreatePaginationResponse(limit, offset, total int) dto.PaginationResponse {
	return dto.PaginationResponse{
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasMore: offset+limit < total,
	}
}
