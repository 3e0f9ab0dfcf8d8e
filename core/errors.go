package core

import "github.com/pkg/errors"

var ErrPermissionDenied = errors.New("permission denied")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned whenever the provided input is invalid.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

type notFound struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &notFound{message: msg}
}

func (nf notFound) Error() string {
	return nf.message
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*notFound)
	return ok
}

// conflict is returned when a write would break a uniqueness rule.
type conflict struct {
	message string
}

func NewConflictError(msg string) error {
	return &conflict{message: msg}
}

func (c conflict) Error() string {
	return c.message
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*conflict)
	return ok
}

func IsPermissionDenied(err error) bool {
	return errors.Cause(err) == ErrPermissionDenied
}

type shutdown struct {
	message string
}

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
