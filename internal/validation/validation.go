package validation

import (
	"errors"
	"fmt"
)

// Error reports a rejected input with enough detail for the caller to
// correct it: the offending field and the violated constraint.
type Error struct {
	Field      string
	Constraint string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Constraint)
}

// Errorf builds a validation error with a formatted constraint message.
func Errorf(field, format string, args ...any) *Error {
	return &Error{Field: field, Constraint: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a validation error.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}
