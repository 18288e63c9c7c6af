package valueobject

import "fmt"

// JobStatus represents the current status of a conversion job.
type JobStatus string

// Job status constants.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// validJobStatuses contains all valid job statuses.
var validJobStatuses = map[JobStatus]bool{
	JobStatusPending:   true,
	JobStatusRunning:   true,
	JobStatusCompleted: true,
	JobStatusFailed:    true,
}

// jobStatusTransitions defines the legal lifecycle:
// pending -> running -> completed | failed.
var jobStatusTransitions = map[JobStatus][]JobStatus{
	JobStatusPending: {JobStatusRunning},
	JobStatusRunning: {JobStatusCompleted, JobStatusFailed},
	// Terminal states cannot transition
	JobStatusCompleted: {},
	JobStatusFailed:    {},
}

// NewJobStatus creates a new JobStatus with validation.
func NewJobStatus(status string) (JobStatus, error) {
	s := JobStatus(status)
	if !validJobStatuses[s] {
		return "", fmt.Errorf("invalid job status: %s", status)
	}
	return s, nil
}

// String returns the string representation of the status.
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this status represents a final state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	for _, valid := range jobStatusTransitions[s] {
		if target == valid {
			return true
		}
	}
	return false
}

// AllJobStatuses returns all valid job statuses.
func AllJobStatuses() []JobStatus {
	statuses := make([]JobStatus, 0, len(validJobStatuses))
	for status := range validJobStatuses {
		statuses = append(statuses, status)
	}
	return statuses
}
