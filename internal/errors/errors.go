package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by the authentication core
var (
	// Authentication errors
	ErrWrongCredentials      = errors.New("wrong credentials")
	ErrLocked                = errors.New("locked")
	ErrMaxConcurrentSessions = errors.New("max concurrent sessions reached")

	// Token errors
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidAPICredentials = errors.New("invalid api credentials")

	// Authorization errors
	ErrNoResource      = errors.New("no resource")
	ErrActionForbidden = errors.New("action forbidden")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError is returned by the write path when an entity breaks one of
// its constraints. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation builds a ValidationError for field.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a failure from the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence wraps err as a PersistenceError unless it is nil or already
// carries one of the known kinds.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

var kinds = []struct {
	err    error
	code   int
	status int
}{
	{ErrValidation, 40002, http.StatusBadRequest},
	{ErrNotFound, 40003, http.StatusNotFound},
	{ErrWrongCredentials, 40004, http.StatusUnauthorized},
	{ErrInvalidToken, 40005, http.StatusUnauthorized},
	{ErrLocked, 40006, http.StatusLocked},
	{ErrNoResource, 40008, http.StatusForbidden},
	{ErrActionForbidden, 40009, http.StatusForbidden},
	{ErrMaxConcurrentSessions, 40010, http.StatusLocked},
	{ErrInvalidAPICredentials, 40011, http.StatusForbidden},
	{ErrPersistence, 5007, http.StatusInternalServerError},
}

// Classified reports whether err matches one of the known kinds.
func Classified(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return true
		}
	}
	return false
}

// Code returns the numeric error code and HTTP status for err.
// Unknown errors map to 5000/500.
func Code(err error) (code int, status int) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code, k.status
		}
	}
	return 5000, http.StatusInternalServerError
}

// Message returns the text safe to show a caller: the field and message of
// a validation error, the kind of any other known error, and a generic text
// for everything else.
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, k := range kinds {
		if k.status < http.StatusInternalServerError && errors.Is(err, k.err) {
			return k.err.Error()
		}
	}
	return "internal server error"
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
