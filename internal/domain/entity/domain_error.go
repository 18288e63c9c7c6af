package entity

// DomainError represents a domain-specific error with a stable machine code.
// It optionally wraps a sentinel from internal/domain/errors/domain so
// callers can branch with errors.Is while handlers map on Code.
type DomainError struct {
	message string
	code    string
	cause   error
}

// NewDomainError creates a new domain error.
func NewDomainError(message, code string) *DomainError {
	return &DomainError{
		message: message,
		code:    code,
	}
}

// NewDomainErrorWithCause creates a domain error wrapping a sentinel cause.
func NewDomainErrorWithCause(message, code string, cause error) *DomainError {
	return &DomainError{
		message: message,
		code:    code,
		cause:   cause,
	}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.message
}

// Code returns the error code.
func (e *DomainError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *DomainError) Message() string {
	return e.message
}

// Unwrap exposes the sentinel cause, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}
