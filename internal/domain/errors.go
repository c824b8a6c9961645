package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a record is owned by a different user
	ErrForbidden = errors.New("record belongs to another user")

	// ErrValidation marks malformed numeric or enumerated input
	ErrValidation = errors.New("invalid input")

	// ErrNotComputable is returned when metrics are requested without projection data
	ErrNotComputable = errors.New("metrics unavailable")
)

// Invalid wraps ErrValidation with a human readable reason
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
