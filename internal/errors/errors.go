package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// WrapCode wraps an error under an explicit code. An error that already
// carries a code keeps it.
func WrapCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		code = appErr.Code
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes. Domain failures (inference, shape mismatch)
// are classified by sentinel in domain/core; these codes cover the
// infrastructure layers around it.
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// ConfigInvalid builds a configuration error.
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// Database wraps a storage-layer failure.
func Database(err error, message string) error {
	return WrapCode(err, CodeDatabaseError, message)
}
