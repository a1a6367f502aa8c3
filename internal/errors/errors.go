// Package errors defines the application error taxonomy shared by services and handlers.
//
// Services return *AppError for failures detected locally (bad form input, missing profile).
// Backend failures keep their own type and join the taxonomy through the Coder interface.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates the backend rejected a write because of existing data.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeUnauthorized indicates missing or rejected credentials.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
)

// Coder is implemented by errors that carry an ErrorCode without being an *AppError.
type Coder interface {
	Code() ErrorCode
}

// AppError is a locally detected failure with a user-facing message.
type AppError struct {
	Code ErrorCode
	// Message is shown to the user as is, so it is written in Spanish.
	Message string
	Cause   error
	// Field names the form field at fault, for validation errors.
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Validation creates a validation error that is not tied to one field.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField creates a validation error for a specific form field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return GetCode(err) == ErrCodeValidation
}

// IsUnauthorized reports whether err is an authorization failure, local or from the backend.
func IsUnauthorized(err error) bool {
	return GetCode(err) == ErrCodeUnauthorized
}

// GetCode returns the code of the first *AppError or Coder in err's chain, or "".
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	var coder Coder
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
