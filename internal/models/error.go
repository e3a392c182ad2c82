package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Query errors
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// Email workflow errors
	ErrEmailFailed     = errors.New("email delivery failed")
	ErrUnknownTemplate = errors.New("unknown email template")
)

// RequestError carries a caller-facing message alongside the sentinel that decides the status.
type RequestError struct {
	Err     error
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// BadRequest returns a RequestError wrapping ErrBadRequest.
func BadRequest(message string) error {
	return &RequestError{Err: ErrBadRequest, Message: message}
}

// NotFound returns a RequestError wrapping ErrNotFound.
func NotFound(message string) error {
	return &RequestError{Err: ErrNotFound, Message: message}
}
