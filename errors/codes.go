package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Provider selection outcomes
const (
	// ErrCodeNoCandidate indicates selection ran over an empty candidate set.
	ErrCodeNoCandidate ErrorCode = "NO_CANDIDATE"
	// ErrCodeNoEligibleProvider indicates every candidate declined the requested resources.
	ErrCodeNoEligibleProvider ErrorCode = "NO_ELIGIBLE_PROVIDER"
	// ErrCodeAmbiguousTie indicates several candidates share the winning rank under a strict tie policy.
	ErrCodeAmbiguousTie ErrorCode = "AMBIGUOUS_TIE"
)

// Store errors
const (
	// ErrCodeStoreClosed indicates an operation on a released store.
	ErrCodeStoreClosed ErrorCode = "STORE_CLOSED"
	// ErrCodeStoreFailure indicates a storage engine failed to serve an operation.
	ErrCodeStoreFailure ErrorCode = "STORE_FAILURE"
	// ErrCodeSerialization indicates a value could not be encoded or decoded.
	ErrCodeSerialization ErrorCode = "SERIALIZATION_ERROR"
	// ErrCodeCircuitOpen indicates a backend is failing fast after repeated failures.
	ErrCodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeConnectionFailed indicates a failed connection to a backing service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeStoreFailure:     true,
	ErrCodeCircuitOpen:      false,
	ErrCodeInternal:         false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
