package core

import "github.com/pkg/errors"

// FieldError ties an error message to the struct field it concerns.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries field-level errors for a rejected input.
// The API renders it as a {field: message} map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthorizationError indicates that the authenticated role may not
// perform the attempted action. It is never a silent no-op; the API
// surfaces it as a 403 with the reason.
type AuthorizationError struct {
	Reason string
}

func NewAuthorizationError(reason string) error {
	return &AuthorizationError{Reason: reason}
}

func (err AuthorizationError) Error() string { return err.Reason }

// shutdownError signals the web app to initiate a graceful shutdown.
type shutdownError struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdownError{message: msg}
}

func (s shutdownError) Error() string { return s.message }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}
