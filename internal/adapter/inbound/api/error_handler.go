// Package api provides the HTTP transport for module conversion: request
// decoding, routing, and the mapping of domain and conversion errors onto
// HTTP status codes with structured JSON error bodies.
//
// Conversion failures carry source locations, so instead of a generic
// "Internal server error" the client sees exactly what to fix:
//
//	{"error": "SYNTAX_ERROR", "message": "app.js:3:7: syntax error: unexpected token",
//	 "details": {"module_path": "app.js", "line": 3, "column": 7}}
package api

import (
	"errors"
	"net/http"

	"esmconvert/internal/application/common"
	"esmconvert/internal/application/common/slogger"
	"esmconvert/internal/application/dto"
	conversionerrors "esmconvert/internal/domain/errors/conversion"
	domainerrors "esmconvert/internal/domain/errors/domain"
)

// ErrorHandler defines methods for handling HTTP errors.
type ErrorHandler interface {
	HandleValidationError(w http.ResponseWriter, r *http.Request, err error)
	HandleServiceError(w http.ResponseWriter, r *http.Request, err error)
}

// ErrorHandlingConfig defines the response shape for one error category.
// It centralizes error response logic to reduce duplication.
type ErrorHandlingConfig struct {
	LogMessage      string
	ErrorType       string
	HTTPStatus      int
	ErrorCode       dto.ErrorCode
	ResponseMessage string
}

// DefaultErrorHandler implements ErrorHandler with standard HTTP error responses.
type DefaultErrorHandler struct {
	errorConfigs map[error]ErrorHandlingConfig
}

// NewDefaultErrorHandler creates a new DefaultErrorHandler with predefined
// configurations for sentinel domain errors.
func NewDefaultErrorHandler() ErrorHandler {
	configs := map[error]ErrorHandlingConfig{
		domainerrors.ErrJobNotFound: {
			LogMessage:      "Conversion job not found",
			ErrorType:       "job_not_found",
			HTTPStatus:      http.StatusNotFound,
			ErrorCode:       dto.ErrorCodeJobNotFound,
			ResponseMessage: "Conversion job not found",
		},
	}

	return &DefaultErrorHandler{
		errorConfigs: configs,
	}
}

// logError logs an error with consistent context fields.
func (h *DefaultErrorHandler) logError(r *http.Request, message, errorType string, err error) {
	slogger.Error(r.Context(), message, slogger.Fields{
		"error": err.Error(),
		"path":  r.URL.Path,
		"type":  errorType,
	})
}

// handleErrorWithConfig handles an error using its configuration.
func (h *DefaultErrorHandler) handleErrorWithConfig(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	config ErrorHandlingConfig,
) {
	h.logError(r, config.LogMessage, config.ErrorType, err)

	response := h.createErrorResponse(config.ErrorCode, config.ResponseMessage, nil)
	h.writeErrorResponse(w, r, config.HTTPStatus, response)
}

// createErrorResponse creates a standardized error response.
func (h *DefaultErrorHandler) createErrorResponse(
	errorCode dto.ErrorCode,
	message string,
	details interface{},
) dto.ErrorResponse {
	return dto.NewErrorResponse(errorCode, message, details)
}

// HandleValidationError handles validation errors by returning 400 Bad Request.
func (h *DefaultErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, "Validation error occurred", "validation", err)

	var validationErr common.ValidationError
	if errors.As(err, &validationErr) {
		response := h.createErrorResponse(
			dto.ErrorCodeInvalidRequest,
			"Validation failed",
			dto.ValidationErrorDetails{
				Errors: []dto.ValidationError{validationErr.ToDTO()},
			},
		)
		h.writeErrorResponse(w, r, http.StatusBadRequest, response)
		return
	}

	// Generic validation error
	response := h.createErrorResponse(dto.ErrorCodeInvalidRequest, err.Error(), nil)
	h.writeErrorResponse(w, r, http.StatusBadRequest, response)
}

// HandleServiceError maps service errors to appropriate HTTP status codes.
// Validation errors surfaced by the service layer report 400, conversion
// failures report their dedicated codes, and anything unrecognized becomes
// an opaque 500.
func (h *DefaultErrorHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr common.ValidationError
	if errors.As(err, &validationErr) {
		h.HandleValidationError(w, r, err)
		return
	}

	// Check for configured domain errors
	for sentinel, config := range h.errorConfigs {
		if errors.Is(err, sentinel) {
			h.handleErrorWithConfig(w, r, err, config)
			return
		}
	}

	if h.handleConversionError(w, r, err) {
		return
	}

	// Default internal server error
	defaultConfig := ErrorHandlingConfig{
		LogMessage:      "Internal server error",
		ErrorType:       "internal",
		HTTPStatus:      http.StatusInternalServerError,
		ErrorCode:       dto.ErrorCodeInternalError,
		ResponseMessage: "An internal error occurred",
	}
	h.handleErrorWithConfig(w, r, err, defaultConfig)
}

// handleConversionError writes responses for typed conversion failures.
// Syntax and unsupported-construct errors are permanent for the submitted
// source and map to 422 with the offending location. Name collisions signal
// a converter bug and map to 500. Returns false when err is none of these.
func (h *DefaultErrorHandler) handleConversionError(w http.ResponseWriter, r *http.Request, err error) bool {
	var syntaxErr *conversionerrors.SyntaxError
	if errors.As(err, &syntaxErr) {
		h.logError(r, "Module source failed to parse", "syntax_error", err)
		response := h.createErrorResponse(dto.ErrorCodeSyntaxError, syntaxErr.Error(), dto.ConversionErrorDetails{
			ModulePath: syntaxErr.Path,
			Line:       syntaxErr.Line,
			Column:     syntaxErr.Column,
		})
		h.writeErrorResponse(w, r, http.StatusUnprocessableEntity, response)
		return true
	}

	var unsupportedErr *conversionerrors.UnsupportedConstructError
	if errors.As(err, &unsupportedErr) {
		h.logError(r, "Module uses unsupported syntax", "unsupported_construct", err)
		response := h.createErrorResponse(
			dto.ErrorCodeUnsupportedConstruct,
			unsupportedErr.Error(),
			dto.ConversionErrorDetails{
				ModulePath: unsupportedErr.Path,
				Line:       unsupportedErr.Line,
				Column:     unsupportedErr.Column,
				Construct:  unsupportedErr.Construct,
			},
		)
		h.writeErrorResponse(w, r, http.StatusUnprocessableEntity, response)
		return true
	}

	var collisionErr *conversionerrors.NameCollisionError
	if errors.As(err, &collisionErr) {
		h.logError(r, "Synthetic name allocation failed", "name_collision", err)
		response := h.createErrorResponse(
			dto.ErrorCodeNameCollision,
			"Converter could not allocate a unique helper name",
			nil,
		)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, response)
		return true
	}

	return false
}

// writeErrorResponse writes an error response as JSON with correlation ID preservation.
func (h *DefaultErrorHandler) writeErrorResponse(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	response dto.ErrorResponse,
) {
	// Preserve correlation ID if present in request
	if correlationID := r.Header.Get("X-Correlation-ID"); correlationID != "" {
		w.Header().Set("X-Correlation-ID", correlationID)
	}

	if err := WriteJSON(w, statusCode, response); err != nil {
		// If JSON writing fails, fall back to plain text error
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal Server Error"))
	}
}
