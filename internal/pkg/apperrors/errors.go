package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	// Encoding layer. These indicate a schema/data contract mismatch and
	// are never retried.
	ErrUnknownType    ErrorType = "UNKNOWN_TYPE"
	ErrMissingField   ErrorType = "MISSING_FIELD"
	ErrLengthMismatch ErrorType = "LENGTH_MISMATCH"
	ErrOutOfRange     ErrorType = "OUT_OF_RANGE"

	// Signing layer.
	ErrInvalidKey ErrorType = "INVALID_KEY"

	// Collaborator layer.
	ErrNetwork         ErrorType = "NETWORK_FAILURE"
	ErrServiceRejected ErrorType = "SERVICE_REJECTED"

	// Gateway layer.
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`

	// Populated for SERVICE_REJECTED: the upstream status and raw body,
	// preserved verbatim for the caller to act on.
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
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

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
	}
}

func Newf(errType ErrorType, format string, args ...any) *AppError {
	return New(errType, fmt.Sprintf(format, args...), nil)
}

// NewServiceRejected preserves the upstream status and body of a rejected
// collaborator call.
func NewServiceRejected(status int, body string) *AppError {
	e := New(ErrServiceRejected, fmt.Sprintf("upstream rejected request with status %d", status), nil)
	e.UpstreamStatus = status
	e.UpstreamBody = body
	return e
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrUnknownType, ErrMissingField, ErrLengthMismatch, ErrOutOfRange, ErrInvalidKey:
		// Contract mismatches between schema and data are programmer
		// errors, not client errors.
		return http.StatusInternalServerError
	case ErrNetwork, ErrServiceRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
