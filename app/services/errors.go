// Package services holds the storefront's business rules. Services return
// *Error for failures the client caused; anything else is an internal
// error.
package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/storefront/pkg/database"
)

// Error is a failure with a client-facing status and message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%d: %s", e.Status, e.Message) }

func badRequest(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

func conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg}
}

func unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// ValidationError carries per-field messages, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation failed: %v", e.Fields) }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ErrNotConfigured is returned by integrations that have no credentials.
var ErrNotConfigured = &Error{Status: http.StatusNotImplemented, Message: "Not configured"}

// AsError unwraps err into a *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// orNotFound maps gorm's not-found to a 404 with msg and wraps anything
// else.
func orNotFound(err error, msg string) error {
	if err == nil {
		return nil
	}
	if database.IsNotFound(err) {
		return notFound(msg)
	}
	return err
}

// orNotFoundAs is orNotFound with a caller-chosen error for the missing
// case.
func orNotFoundAs(err error, missing *Error) error {
	if database.IsNotFound(err) {
		return missing
	}
	return err
}
