package common

import "fmt"

// ServiceError represents a service-level error with context
type ServiceError struct {
	Operation string
	Cause     error
}

// Error implements the error interface
func (e ServiceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error
func (e ServiceError) Unwrap() error {
	return e.Cause
}

// WrapServiceError wraps an error with service operation context
func WrapServiceError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return ServiceError{
		Operation: operation,
		Cause:     err,
	}
}

// Common error operations for consistent messaging
const (
	OpTransformModule       = "transform module"
	OpCreateConversionJob   = "create conversion job"
	OpRetrieveConversionJob = "retrieve conversion job"
	OpListConversionJobs    = "retrieve conversion jobs"
	OpSaveConversionJob     = "save conversion job"
	OpUpdateConversionJob   = "update conversion job"
	OpPublishJob            = "publish conversion job"
	OpCacheResult           = "cache conversion result"
)
