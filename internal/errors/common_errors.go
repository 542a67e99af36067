package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInvalidConfiguration ErrorType = "INVALID_CONFIGURATION"
	ErrTypeDataNotFound         ErrorType = "DATA_NOT_FOUND"
	ErrTypeMalformedInput       ErrorType = "MALFORMED_INPUT"
	ErrTypeIndexOutOfRange      ErrorType = "INDEX_OUT_OF_RANGE"
	ErrTypeNetwork              ErrorType = "NETWORK"
	ErrTypeStorage              ErrorType = "STORAGE"
	ErrTypeConfig               ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInvalidConfigurationError reports window or mode parameters that cannot produce samples
func NewInvalidConfigurationError(format string, args ...interface{}) *AppError {
	return NewAppError(ErrTypeInvalidConfiguration, fmt.Sprintf(format, args...), nil)
}

// NewDataNotFoundError reports that no directory under root holds the required files
func NewDataNotFoundError(root string, files ...string) *AppError {
	return NewAppError(ErrTypeDataNotFound, fmt.Sprintf("no directory under %s contains %v", root, files), nil).
		WithContext("root", root)
}

// NewMalformedInputError reports arrays with an unexpected rank, shape or content
func NewMalformedInputError(message string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedInput, message, cause)
}

// NewIndexOutOfRangeError reports a sample index outside [0, length)
func NewIndexOutOfRangeError(index, length int) *AppError {
	return NewAppError(ErrTypeIndexOutOfRange, fmt.Sprintf("index %d out of range [0, %d)", index, length), nil).
		WithContext("index", index).
		WithContext("length", length)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the type of the first AppError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
