package toollife

import (
	"errors"
	"fmt"
)

// ErrAlertNotFound indicates a missing alert record.
var ErrAlertNotFound = errors.New("toollife: alert not found")

// ErrAlertNotOpen indicates an alert that is already acknowledged. Closed
// alerts never transition back to SENT.
var ErrAlertNotOpen = errors.New("toollife: alert is not open")

// ErrDispatchFailed indicates no notification channel accepted an alert.
// It is never surfaced to the usage-recording caller.
var ErrDispatchFailed = errors.New("toollife: notification dispatch failed")

// ValidationError reports a caller-fixable problem with one input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("toollife: invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a field-level validation error.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
