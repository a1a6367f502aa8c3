package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/aulaweb/aula-admin/internal/errors"
)

// ErrUnreachable marks transport failures where no HTTP response was received.
var ErrUnreachable = errors.New("backend unreachable")

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
	// Body is the decoded error body when it was JSON.
	Body any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Code maps the HTTP status onto the application error taxonomy.
func (e *APIError) Code() apperrors.ErrorCode {
	switch {
	case e.Status == http.StatusUnauthorized:
		return apperrors.ErrCodeUnauthorized
	case e.Status == http.StatusNotFound:
		return apperrors.ErrCodeNotFound
	case e.Status == http.StatusConflict:
		return apperrors.ErrCodeConflict
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnprocessableEntity:
		return apperrors.ErrCodeValidation
	case e.Status == http.StatusGatewayTimeout:
		return apperrors.ErrCodeTimeout
	default:
		return apperrors.ErrCodeInternal
	}
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Status returns the HTTP status carried by err, or 0 when the backend was not reached
// or err is not a backend error.
func Status(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Status
	}
	return 0
}

// Message returns the backend-provided message carried by err, if any.
func Message(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Message
	}
	return ""
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	return Status(err) == http.StatusUnauthorized
}

// IsUnreachable reports whether err is a connectivity failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
