package entity

import (
	"time"

	"esmconvert/internal/domain/errors/domain"
	"esmconvert/internal/domain/valueobject"

	"github.com/google/uuid"
)

// ConversionJob represents an asynchronous module conversion tracked through
// the pending -> running -> completed/failed lifecycle.
type ConversionJob struct {
	id           uuid.UUID
	modulePath   string
	source       string
	status       valueobject.JobStatus
	output       *string
	errorMessage *string
	startedAt    *time.Time
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewConversionJob creates a pending ConversionJob for a module source.
func NewConversionJob(modulePath, source string) *ConversionJob {
	now := time.Now()
	return &ConversionJob{
		id:         uuid.New(),
		modulePath: modulePath,
		source:     source,
		status:     valueobject.JobStatusPending,
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestoreConversionJob creates a ConversionJob entity from stored data.
func RestoreConversionJob(
	id uuid.UUID,
	modulePath string,
	source string,
	status valueobject.JobStatus,
	output *string,
	errorMessage *string,
	startedAt *time.Time,
	completedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) *ConversionJob {
	return &ConversionJob{
		id:           id,
		modulePath:   modulePath,
		source:       source,
		status:       status,
		output:       output,
		errorMessage: errorMessage,
		startedAt:    startedAt,
		completedAt:  completedAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the job ID.
func (j *ConversionJob) ID() uuid.UUID {
	return j.id
}

// ModulePath returns the path the module was submitted under.
func (j *ConversionJob) ModulePath() string {
	return j.modulePath
}

// Source returns the module source text.
func (j *ConversionJob) Source() string {
	return j.source
}

// Status returns the current job status.
func (j *ConversionJob) Status() valueobject.JobStatus {
	return j.status
}

// Output returns the converted text once the job completed.
func (j *ConversionJob) Output() *string {
	return j.output
}

// ErrorMessage returns the failure message if the job failed.
func (j *ConversionJob) ErrorMessage() *string {
	return j.errorMessage
}

// StartedAt returns the job start timestamp.
func (j *ConversionJob) StartedAt() *time.Time {
	return j.startedAt
}

// CompletedAt returns the job completion timestamp.
func (j *ConversionJob) CompletedAt() *time.Time {
	return j.completedAt
}

// CreatedAt returns the creation timestamp.
func (j *ConversionJob) CreatedAt() time.Time {
	return j.createdAt
}

// UpdatedAt returns the last update timestamp.
func (j *ConversionJob) UpdatedAt() time.Time {
	return j.updatedAt
}

// IsTerminal returns true if the job is in a terminal state.
func (j *ConversionJob) IsTerminal() bool {
	return j.status.IsTerminal()
}

// Duration returns the job duration if it both started and finished.
func (j *ConversionJob) Duration() *time.Duration {
	if j.startedAt == nil || j.completedAt == nil {
		return nil
	}
	duration := j.completedAt.Sub(*j.startedAt)
	return &duration
}

// Start marks the job as running.
func (j *ConversionJob) Start() error {
	if !j.status.CanTransitionTo(valueobject.JobStatusRunning) {
		return transitionError(j.status, valueobject.JobStatusRunning)
	}

	now := time.Now()
	j.status = valueobject.JobStatusRunning
	j.startedAt = &now
	j.updatedAt = now
	return nil
}

// Complete marks the job as completed with its converted output.
func (j *ConversionJob) Complete(output string) error {
	if !j.status.CanTransitionTo(valueobject.JobStatusCompleted) {
		return transitionError(j.status, valueobject.JobStatusCompleted)
	}

	now := time.Now()
	j.status = valueobject.JobStatusCompleted
	j.completedAt = &now
	j.output = &output
	j.errorMessage = nil
	j.updatedAt = now
	return nil
}

// Fail marks the job as failed with an error message.
func (j *ConversionJob) Fail(errorMessage string) error {
	if !j.status.CanTransitionTo(valueobject.JobStatusFailed) {
		return transitionError(j.status, valueobject.JobStatusFailed)
	}

	now := time.Now()
	j.status = valueobject.JobStatusFailed
	j.completedAt = &now
	j.errorMessage = &errorMessage
	j.updatedAt = now
	return nil
}

// Equal compares two ConversionJob entities by identity.
func (j *ConversionJob) Equal(other *ConversionJob) bool {
	if other == nil {
		return false
	}
	return j.id == other.id
}

func transitionError(from, to valueobject.JobStatus) error {
	return NewDomainErrorWithCause(
		"cannot move job from "+from.String()+" to "+to.String(),
		"INVALID_STATUS_TRANSITION",
		domain.ErrInvalidJobTransition,
	)
}
