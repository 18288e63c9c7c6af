package common

import (
	"fmt"
	"strings"

	"esmconvert/internal/application/common/security"
	"esmconvert/internal/application/dto"
	"esmconvert/internal/domain/valueobject"

	"github.com/google/uuid"
)

// ValidationError represents a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: message,
	}
}

// ToDTO converts the validation error to its response representation.
func (e ValidationError) ToDTO() dto.ValidationError {
	return dto.ValidationError{
		Field:   e.Field,
		Message: e.Message,
	}
}

// ValidateSource checks that module source is present and within limits.
// maxBytes of zero disables the size check.
func ValidateSource(source string, maxBytes int) error {
	if strings.TrimSpace(source) == "" {
		return NewValidationError("source", "source is required")
	}
	if maxBytes > 0 && len(source) > maxBytes {
		return NewValidationError("source", fmt.Sprintf("source exceeds maximum size of %d bytes", maxBytes))
	}
	return nil
}

// ValidateModulePath checks a client-supplied module path. The path is
// display metadata used in diagnostics, so an empty path is allowed.
func ValidateModulePath(path string) error {
	if path == "" {
		return nil
	}

	validator := security.NewPathValidator(security.DefaultConfig())
	if err := validator.ValidateModulePath(path); err != nil {
		return NewValidationError("module_path", err.Error())
	}
	return nil
}

// ValidateJobStatusFilter validates an optional job status filter value.
func ValidateJobStatusFilter(status string) error {
	if status == "" {
		return nil
	}
	if _, err := valueobject.NewJobStatus(status); err != nil {
		return NewValidationError("status", fmt.Sprintf("invalid status: %s", status))
	}
	return nil
}

// ValidateUUID validates that a UUID is not nil/empty.
func ValidateUUID(id uuid.UUID, fieldName string) error {
	if id == uuid.Nil {
		return NewValidationError(fieldName, fmt.Sprintf("%s is required", fieldName))
	}
	return nil
}

// ValidatePaginationLimit validates pagination limit constraints.
func ValidatePaginationLimit(limit int, maxLimit int, fieldName string) error {
	if limit < 0 {
		return NewValidationError(fieldName, "limit must not be negative")
	}
	if limit > maxLimit {
		return NewValidationError(fieldName, fmt.Sprintf("limit exceeds maximum of %d", maxLimit))
	}
	return nil
}

// ValidatePaginationOffset validates pagination offset constraints.
func ValidatePaginationOffset(offset int, fieldName string) error {
	if offset < 0 {
		return NewValidationError(fieldName, "offset must not be negative")
	}
	return nil
}
