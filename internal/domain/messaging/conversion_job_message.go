// Package messaging defines the queue schema for conversion job messages and
// the validation rules applied before a message is published or consumed.
package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxMessageIDLength  = 255
	maxModulePathLength = 4096
	maxRetryLimit       = 100

	// CurrentSchemaVersion is stamped on every newly published message.
	CurrentSchemaVersion = "1.0"

	minValidYear = 2000
)

// Error messages for validation.
const (
	errorMessageIDRequired  = "message_id is required"
	errorMessageIDTooLong   = "message_id too long"
	errorJobIDNil           = "job_id cannot be nil"
	errorModulePathRequired = "module_path is required"
	errorModulePathTooLong  = "module_path too long"

	errorRetryAttemptNegative = "retry_attempt cannot be negative"
	errorMaxRetriesNegative   = "max_retries cannot be negative"
	errorMaxRetriesExceeds    = "max_retries exceeds maximum allowed"
	errorRetryAttemptExceeds  = "retry_attempt cannot exceed max_retries"

	errorTimestampTooOld = "timestamp too old"
	errorRetryExceedsMax = "retry attempt exceeds max retries"
)

// ConversionJobMessage is the wire schema for one queued conversion. The
// module source itself stays in the database; workers load it by job ID, so
// messages stay small regardless of input size.
type ConversionJobMessage struct {
	MessageID     string    `json:"message_id"`
	CorrelationID string    `json:"correlation_id"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`

	JobID      uuid.UUID `json:"job_id"`
	ModulePath string    `json:"module_path"`

	RetryAttempt int `json:"retry_attempt"`
	MaxRetries   int `json:"max_retries"`
}

// Validate checks the message against all schema rules and returns the first
// violation found.
func (m *ConversionJobMessage) Validate() error {
	if m.MessageID == "" {
		return errors.New(errorMessageIDRequired)
	}
	if len(m.MessageID) > maxMessageIDLength {
		return errors.New(errorMessageIDTooLong)
	}
	if m.JobID == uuid.Nil {
		return errors.New(errorJobIDNil)
	}
	if m.ModulePath == "" {
		return errors.New(errorModulePathRequired)
	}
	if len(m.ModulePath) > maxModulePathLength {
		return errors.New(errorModulePathTooLong)
	}
	if err := m.validateRetryFields(); err != nil {
		return err
	}
	return m.validateTimestamp()
}

func (m *ConversionJobMessage) validateRetryFields() error {
	if m.RetryAttempt < 0 {
		return errors.New(errorRetryAttemptNegative)
	}
	if m.MaxRetries < 0 {
		return errors.New(errorMaxRetriesNegative)
	}
	if m.MaxRetries > maxRetryLimit {
		return errors.New(errorMaxRetriesExceeds)
	}
	if m.RetryAttempt >= m.MaxRetries && m.MaxRetries > 0 {
		return errors.New(errorRetryAttemptExceeds)
	}
	return nil
}

func (m *ConversionJobMessage) validateTimestamp() error {
	if !m.Timestamp.IsZero() && m.Timestamp.Before(time.Date(minValidYear, 1, 1, 0, 0, 0, 0, time.UTC)) {
		return errors.New(errorTimestampTooOld)
	}
	return nil
}

// GenerateCorrelationID generates a unique correlation ID for tracking related
// operations. The format "corr-{timestamp}-{uuid}" provides temporal ordering.
func GenerateCorrelationID() string {
	return fmt.Sprintf("corr-%d-%s", time.Now().UnixNano(), uuid.New().String()[:8])
}

// GenerateUniqueMessageID generates a unique message ID for each message
// instance. The format "msg-{timestamp}-{uuid}" provides temporal ordering.
func GenerateUniqueMessageID() string {
	return fmt.Sprintf("msg-%d-%s", time.Now().UnixNano(), uuid.New().String()[:8])
}

// IsSchemaVersionCompatible checks a message schema version against the
// supported set. Exact matches and patch versions of a supported minor
// ("1.0" accepts "1.0.2") are compatible.
func IsSchemaVersionCompatible(messageVersion string, supportedVersions []string) bool {
	if messageVersion == "" || len(supportedVersions) == 0 {
		return false
	}
	for _, supported := range supportedVersions {
		if messageVersion == supported {
			return true
		}
		if strings.HasPrefix(messageVersion, supported+".") {
			return true
		}
	}
	return false
}

// CreateRetryMessage clones a message for re-delivery with an incremented
// attempt counter, a fresh message ID, and a current timestamp. The
// correlation ID is preserved so the whole retry chain stays traceable.
func CreateRetryMessage(original ConversionJobMessage, retryAttempt int) (ConversionJobMessage, error) {
	if retryAttempt > original.MaxRetries {
		return ConversionJobMessage{}, errors.New(errorRetryExceedsMax)
	}

	retry := original
	retry.MessageID = GenerateUniqueMessageID()
	retry.RetryAttempt = retryAttempt
	retry.Timestamp = time.Now()
	return retry, nil
}

// CalculateMessageSize returns the serialized JSON size of a message in bytes.
func CalculateMessageSize(message ConversionJobMessage) (int, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// ValidateMessageSize rejects messages whose serialized form exceeds
// maxSizeBytes, before they reach the queue.
func ValidateMessageSize(message ConversionJobMessage, maxSizeBytes int) error {
	size, err := CalculateMessageSize(message)
	if err != nil {
		return err
	}
	if size > maxSizeBytes {
		return fmt.Errorf("message size %d bytes exceeds maximum %d bytes", size, maxSizeBytes)
	}
	return nil
}
