package dto

import "time"

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
}

// ErrorCode represents standard error codes.
type ErrorCode string

const (
	// ErrorCodeInvalidRequest indicates that the request contains invalid parameters or data.
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrorCodeSyntaxError indicates that the submitted module source could not be parsed.
	ErrorCodeSyntaxError ErrorCode = "SYNTAX_ERROR"
	// ErrorCodeUnsupportedConstruct indicates module syntax with no rewrite rule.
	ErrorCodeUnsupportedConstruct ErrorCode = "UNSUPPORTED_CONSTRUCT"
	// ErrorCodeNameCollision indicates synthetic-name allocation failed; a converter bug.
	ErrorCodeNameCollision ErrorCode = "NAME_COLLISION"
	// ErrorCodeJobNotFound indicates that the requested conversion job could not be found.
	ErrorCodeJobNotFound ErrorCode = "JOB_NOT_FOUND"
	// ErrorCodeInternalError indicates an unexpected internal server error occurred.
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeServiceUnavailable indicates that the service is temporarily unavailable.
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// NewErrorResponse creates a new error response.
func NewErrorResponse(code ErrorCode, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		Error:     string(code),
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// ConversionErrorDetails carries the source location of a conversion failure.
// Line is 1-based, Column 0-based, matching editor conventions.
type ConversionErrorDetails struct {
	ModulePath string `json:"module_path,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Construct  string `json:"construct,omitempty"`
}

// ValidationError represents a validation error with field details.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ValidationErrorDetails represents multiple validation errors.
type ValidationErrorDetails struct {
	Errors []ValidationError `json:"errors"`
}
