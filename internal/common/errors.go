package common

import "errors"

// GenericTransportMessage is shown to users when an upstream response carried
// no usable message. Raw error text must never reach clients.
const GenericTransportMessage = "payment service is temporarily unavailable"

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UserMessage returns the message intended for end users, falling back to the
// generic transport message when the upstream provided none.
func (e *AppError) UserMessage() string {
	if e != nil && e.Message != "" {
		return e.Message
	}
	return GenericTransportMessage
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
