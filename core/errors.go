package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries field-level failures from a request type's
// Validate out to the API layer, which flattens Fields into the response.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is the shared shape of every domain's missing-record
// sentinel. Each package declares one instance per record kind (user,
// student, payment, installment, result, school information, gateway
// configuration) so call sites keep identity comparisons while the API
// layer maps them all to the same status.
type NotFoundError struct {
	resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{resource: resource}
}

func (err NotFoundError) Error() string {
	return err.resource + " not found"
}

// IsNotFound reports whether err, unwrapped, is a missing-record sentinel.
func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

type shutdown struct {
	message string
}

// NewShutdownError flags an error as fatal to the whole process; the API
// error handler triggers a graceful stop when it catches one.
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
