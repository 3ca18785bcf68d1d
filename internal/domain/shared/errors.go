package shared

import (
	"errors"
	"fmt"
	"time"
)

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Bridge errors

// BridgeUnavailableError means the scripted browser could not run a script:
// the page is not loaded, navigation is in progress, or the script threw.
type BridgeUnavailableError struct {
	*DomainError
	Operation string
	Cause     error
}

func NewBridgeUnavailableError(operation string, cause error) *BridgeUnavailableError {
	msg := fmt.Sprintf("bridge unavailable during %s", operation)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &BridgeUnavailableError{
		DomainError: &DomainError{Message: msg},
		Operation:   operation,
		Cause:       cause,
	}
}

func (e *BridgeUnavailableError) Unwrap() error {
	return e.Cause
}

// DataIncompleteError means a read succeeded but the payload was missing
// fields or carried an unexpected shape.
type DataIncompleteError struct {
	*DomainError
	Source string
}

func NewDataIncompleteError(source, message string) *DataIncompleteError {
	return &DataIncompleteError{
		DomainError: &DomainError{Message: fmt.Sprintf("incomplete %s data: %s", source, message)},
		Source:      source,
	}
}

// RemoteRejectionError carries the error string returned by the game for a
// purchase or departure that was refused.
type RemoteRejectionError struct {
	*DomainError
	Operation string
	Reason    string
}

func NewRemoteRejectionError(operation, reason string) *RemoteRejectionError {
	if reason == "" {
		reason = "unknown error"
	}
	return &RemoteRejectionError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s rejected: %s", operation, reason)},
		Operation:   operation,
		Reason:      reason,
	}
}

// WaitTimeoutError is returned when readiness or login polling gives up.
type WaitTimeoutError struct {
	*DomainError
	Phase    string
	Attempts int
	Elapsed  time.Duration
}

func NewWaitTimeoutError(phase string, attempts int, elapsed time.Duration) *WaitTimeoutError {
	return &WaitTimeoutError{
		DomainError: &DomainError{
			Message: fmt.Sprintf("timed out waiting for %s after %d attempts (%s)", phase, attempts, elapsed.Round(time.Second)),
		},
		Phase:    phase,
		Attempts: attempts,
		Elapsed:  elapsed,
	}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsBridgeUnavailable reports whether err (or anything it wraps) is a BridgeUnavailableError
func IsBridgeUnavailable(err error) bool {
	var target *BridgeUnavailableError
	return errors.As(err, &target)
}

// IsRemoteRejection reports whether err (or anything it wraps) is a RemoteRejectionError
func IsRemoteRejection(err error) bool {
	var target *RemoteRejectionError
	return errors.As(err, &target)
}

// IsWaitTimeout reports whether err (or anything it wraps) is a WaitTimeoutError
func IsWaitTimeout(err error) bool {
	var target *WaitTimeoutError
	return errors.As(err, &target)
}
