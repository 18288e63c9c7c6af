package dto

import (
	"time"

	"github.com/google/uuid"
)

// SubmitJobRequest represents an asynchronous conversion submission.
type SubmitJobRequest struct {
	Source     string `json:"source"`
	ModulePath string `json:"module_path,omitempty"`
}

// SubmitJobResponse acknowledges a queued conversion.
type SubmitJobResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversionJobResponse represents the state of one conversion job.
type ConversionJobResponse struct {
	ID           uuid.UUID  `json:"id"`
	ModulePath   string     `json:"module_path"`
	Status       string     `json:"status"`
	Output       *string    `json:"output,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Duration     *string    `json:"duration,omitempty"` // Human-readable duration
}

// ConversionJobListQuery represents query parameters for listing jobs.
type ConversionJobListQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending running completed failed"`
	Limit  int    `form:"limit"  validate:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

// DefaultConversionJobListQuery returns default values for the job list query.
func DefaultConversionJobListQuery() ConversionJobListQuery {
	return ConversionJobListQuery{
		Limit:  10,
		Offset: 0,
	}
}

// ConversionJobListResponse represents a page of conversion jobs.
type ConversionJobListResponse struct {
	Jobs       []ConversionJobResponse `json:"jobs"`
	Pagination PaginationResponse      `json:"pagination"`
}

// PaginationResponse represents pagination metadata.
type PaginationResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}
