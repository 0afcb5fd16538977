package errors

import (
	"fmt"
	"time"
)

/**
 * Structured error types for the lobbyscan worker shell.
 *
 * The structuring pipeline itself never fails on bad content; these errors
 * cover the surrounding concerns: payloads, OCR backends, storage and
 * construction-time configuration.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Worker shell errors
	ErrorInvalidPayload ErrorCode = "INVALID_PAYLOAD"
	ErrorOCRFailed      ErrorCode = "OCR_FAILED"
	ErrorStorageFailed  ErrorCode = "STORAGE_FAILED"
	ErrorRosterFailed   ErrorCode = "ROSTER_REFRESH_FAILED"

	// Construction-time errors
	ErrorInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
)

// ScanError represents a structured worker error.
type ScanError struct {
	Code         ErrorCode
	Message      string
	SubmissionID string
	Timestamp    time.Time
	Details      map[string]interface{}
	Cause        error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewInvalidPayloadError(submissionID string, cause error) *ScanError {
	return &ScanError{
		Code:         ErrorInvalidPayload,
		Message:      "scan task payload could not be decoded",
		SubmissionID: submissionID,
		Timestamp:    time.Now(),
		Cause:        cause,
	}
}

func NewOCRFailedError(submissionID, engine string, cause error) *ScanError {
	return &ScanError{
		Code:         ErrorOCRFailed,
		Message:      fmt.Sprintf("OCR failed on engine: %s", engine),
		SubmissionID: submissionID,
		Timestamp:    time.Now(),
		Details: map[string]interface{}{
			"engine": engine,
		},
		Cause: cause,
	}
}

func NewStorageFailedError(submissionID string, cause error) *ScanError {
	return &ScanError{
		Code:         ErrorStorageFailed,
		Message:      "failed to persist submission",
		SubmissionID: submissionID,
		Timestamp:    time.Now(),
		Cause:        cause,
	}
}

func NewRosterFailedError(cause error) *ScanError {
	return &ScanError{
		Code:      ErrorRosterFailed,
		Message:   "roster refresh failed",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewConfigurationError(field, reason string) *ScanError {
	return &ScanError{
		Code:      ErrorInvalidConfiguration,
		Message:   fmt.Sprintf("invalid %s: %s", field, reason),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// ToMap converts error to map for database storage
func (e *ScanError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
