package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input detected before any I/O
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

// Is allows errors.Is() to match the typed errors against their sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrProvider     = errors.New("provider error")
)

// ProviderError represents a failure reported by (or while talking to) an LLM backend.
// Transport failures, non-2xx responses, unparseable bodies and the model's own
// "ERROR:" sentinel all surface through this type.
type ProviderError struct {
	Message string // User-facing message, most specific available
	Status  int    // Upstream HTTP status, 0 when not applicable
	Cause   error  // Underlying transport/parse error, if any
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// StatusCode implements the HTTPError interface
func (e *ProviderError) StatusCode() int {
	return http.StatusBadGateway
}

// Is allows errors.Is() to match against ErrProvider
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewProviderError creates a ProviderError wrapping cause
func NewProviderError(message string, cause error) *ProviderError {
	return &ProviderError{Message: message, Cause: cause}
}

// Fallback messages for provider failures that carry no backend-supplied detail
const (
	MsgTransportFailure = "Failed to reach the model provider. Please check your settings and connection."
	MsgInvalidResponse  = "The model provider returned an invalid response."
	MsgConversionFailed = "Failed to convert content. Please check your settings."
	MsgRequestCancelled = "The conversion request was cancelled or timed out."
)
