package common

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the application.
var (
	// ErrRecordNotFound is returned when a store lookup matches nothing.
	ErrRecordNotFound = errors.New("record not found")
	// ErrTargetNotFound is returned when a monitored target does not exist.
	ErrTargetNotFound = errors.New("target not found")
	// ErrCheckInProgress is returned when a check is requested for a target
	// that already has one in flight.
	ErrCheckInProgress = errors.New("check already in progress")
	// ErrDuplicateTransition is returned by the changelog store when the
	// (target, previousVersion, newVersion) transition was already recorded.
	// Callers treat it as a no-op, never as a failure.
	ErrDuplicateTransition = errors.New("duplicate version transition")
)

// WrapError wraps an error with additional context information.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message.
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// ValidationError represents validation errors with field-specific information.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NetworkError represents transport-level failures: unreachable hosts, DNS
// resolution failures, refused connections.
type NetworkError struct {
	URL     string
	Reason  string
	Wrapped error
}

func (e *NetworkError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("network error for '%s': %s: %v", e.URL, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("network error for '%s': %s", e.URL, e.Reason)
}

func (e *NetworkError) Unwrap() error {
	return e.Wrapped
}

// NewNetworkError creates a new network error.
func NewNetworkError(url, reason string, wrapped error) *NetworkError {
	return &NetworkError{
		URL:     url,
		Reason:  reason,
		Wrapped: wrapped,
	}
}

// TimeoutError indicates a fetch exceeded its timeout budget.
type TimeoutError struct {
	URL     string
	Wrapped error
}

func (e *TimeoutError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("timeout fetching '%s': %v", e.URL, e.Wrapped)
	}
	return fmt.Sprintf("timeout fetching '%s'", e.URL)
}

func (e *TimeoutError) Unwrap() error {
	return e.Wrapped
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(url string, wrapped error) *TimeoutError {
	return &TimeoutError{URL: url, Wrapped: wrapped}
}

// HTTPError represents a remote 4xx/5xx response.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("HTTP %d error for '%s': %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d error: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTP error with URL context.
func NewHTTPError(statusCode int, message, url string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		URL:        url,
	}
}

// InvalidSpecError indicates a fetched document is not a usable specification
// (unparseable body, oversized payload, missing info.version).
type InvalidSpecError struct {
	URL    string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("invalid specification from '%s': %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("invalid specification: %s", e.Reason)
}

// NewInvalidSpecError creates a new invalid specification error.
func NewInvalidSpecError(url, reason string) *InvalidSpecError {
	return &InvalidSpecError{URL: url, Reason: reason}
}

// PersistenceError represents a store write failure.
type PersistenceError struct {
	Operation string
	Wrapped   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Operation, e.Wrapped)
}

func (e *PersistenceError) Unwrap() error {
	return e.Wrapped
}

// NewPersistenceError creates a new persistence error.
func NewPersistenceError(operation string, wrapped error) *PersistenceError {
	return &PersistenceError{Operation: operation, Wrapped: wrapped}
}

// IsTransientFetchError reports whether a fetch failure is worth retrying:
// network failures, timeouts and 5xx responses. 4xx responses and invalid
// documents are not transient.
func IsTransientFetchError(err error) bool {
	var netErr *NetworkError
	var timeoutErr *TimeoutError
	var httpErr *HTTPError

	switch {
	case errors.As(err, &netErr), errors.As(err, &timeoutErr):
		return true
	case errors.As(err, &httpErr):
		return httpErr.StatusCode >= 500
	default:
		return false
	}
}
