/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and carries a business code, a taxonomy kind, a short reason and a user-facing message.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"

	"vcturbo/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Kind is the taxonomy category of the error.
	Kind Kind

	// Reason is the short machine-readable name sent as the "error" field of a reply.
	Reason string

	// Message is the user-friendly error description.
	Message string

	// Status is the HTTP status code used by HTTP endpoints.
	Status int
}

// Error implements the standard Go error interface.
func (e *CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (%s/%s): %s", e.Code, e.Kind, e.Reason, e.Message)
}

// NewError returns a fresh *CustomError for a predefined error code.
// An unknown code is logged and mapped to ErrUnknown. When code is ErrUnknown or
// ErrStorageFailed and the first detail is an error, that cause is logged.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)
		templateErr = errorMap[ErrUnknown]
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 {
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Underlying error", "code", customErr.Code)
		}
	}

	return &customErr
}

// As extracts the *CustomError carried by err. Errors of any other type are
// reported as ErrUnknown so callers always get something to reply with.
func As(err error) *CustomError {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	return NewError(ErrUnknown, err)
}

// Is reports whether err carries the given error code.
func Is(err error, code int) bool {
	var customErr *CustomError
	return errors.As(err, &customErr) && customErr.Code == code
}
