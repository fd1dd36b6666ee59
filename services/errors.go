package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("not authorized to perform this action")
	ErrUnauthenticated = errors.New("could not validate credentials")

	// ErrNotFoundOrForbidden is returned when the resource is missing or
	// belongs to someone else. The two cases are not told apart so a
	// non-owner cannot probe which ids exist.
	ErrNotFoundOrForbidden = fmt.Errorf("%w or not authorized", ErrNotFound)

	ErrInvalidType      = errors.New("invalid attachment type")
	ErrInvalidExtension = errors.New("file extension not allowed")
	ErrAlreadyPublished = errors.New("journal is already published")
	ErrInvalidInput     = errors.New("invalid input")
)

// ValidationError reports bad caller input. Err is one of the sentinel
// errors above so callers can match with errors.Is.
type ValidationError struct {
	Err     error
	Message string
}

func newValidationError(err error, format string, args ...interface{}) error {
	return &ValidationError{Err: err, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
