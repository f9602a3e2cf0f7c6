package errors

import (
	stderrors "errors"
)

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}

// HasCode reports whether err, or any AppError it wraps, carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		appErr, ok := AsAppError(err)
		if !ok {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}
