package core

import "github.com/pkg/errors"

type (
	// FieldError attaches a message to the request field that caused it.
	FieldError struct {
		Field string
		Error string
	}

	// ValidationError is a business-rule failure carrying per-field messages;
	// the HTTP layer renders it as a field-to-message map instead of a plain
	// error string.
	ValidationError struct {
		Err    error
		Fields []FieldError
	}
)

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewFieldError reports a business-rule failure on a single request field.
func NewFieldError(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Error: msg}}}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdownError signals an integrity problem the server cannot work through;
// the HTTP error handler turns it into a graceful shutdown.
type shutdownError struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdownError{message: msg}
}

func (s shutdownError) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}
