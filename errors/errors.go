package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code when the error crosses an API boundary.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	e.Retryable = e.Retryable || isRetryableCause(cause)
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Selection errors ---

// NoCandidate reports that selection was asked to choose from nothing.
// This is a wiring defect: no provider was ever registered for the family.
func NoCandidate(resources []string) *AppError {
	return &AppError{
		Code:       ErrCodeNoCandidate,
		Message:    fmt.Sprintf("No store providers are registered to serve resources [%s].", strings.Join(resources, ", ")),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"resources": resources},
	}
}

// NoEligibleProvider reports that every registered provider declined the request.
func NoEligibleProvider(resources []string, ranks map[string]int) *AppError {
	return &AppError{
		Code:       ErrCodeNoEligibleProvider,
		Message:    fmt.Sprintf("No store provider supports resources [%s].", strings.Join(resources, ", ")),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"resources": resources, "ranks": ranks},
	}
}

// AmbiguousTie reports that several providers share the winning rank.
func AmbiguousTie(resources []string, tied []string, rank int) *AppError {
	return &AppError{
		Code: ErrCodeAmbiguousTie,
		Message: fmt.Sprintf("Store providers [%s] tie at rank %d for resources [%s].",
			strings.Join(tied, ", "), rank, strings.Join(resources, ", ")),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"resources": resources, "tied": tied, "rank": rank},
	}
}

// --- Store errors ---

// StoreClosed creates an AppError for an operation on a released store.
func StoreClosed(store string) *AppError {
	return &AppError{
		Code: ErrCodeStoreClosed, Message: fmt.Sprintf("Store %s has been released.", store),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: false,
		Details: map[string]any{"store": store},
	}
}

// StoreFailure wraps an engine-level failure.
func StoreFailure(store, operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStoreFailure, Message: fmt.Sprintf("Store %s failed to %s.", store, operation),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"store": store, "operation": operation}, Cause: cause,
	}
}

// Serialization wraps a codec failure.
func Serialization(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSerialization, Message: fmt.Sprintf("Unable to %s value.", operation),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// ConnectionFailed creates a new AppError for a failed connection to a service.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s. Please verify the service is running.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// CircuitOpen reports that calls to a backend are rejected until it recovers.
func CircuitOpen(name string) *AppError {
	return &AppError{
		Code: ErrCodeCircuitOpen, Message: fmt.Sprintf("Circuit %s is open.", name),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: false,
		Details: map[string]any{"circuit": name},
	}
}

// --- Common constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// AlreadyExists creates a new AppError for a resource that already exists.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: fmt.Sprintf("A %s with these details already exists.", resource),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"resource": resource},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

func isRetryableCause(cause error) bool {
	if app, ok := AsAppError(cause); ok {
		return app.Retryable
	}
	return false
}
