package notes

import (
	"errors"
	"fmt"
)

// Error taxonomy consumed by the HTTP boundary: ValidationError is the
// caller's fault, ErrNotFound a missing id, ErrCorruptHistory a
// store-integrity failure. Everything else is unexpected.
var (
	ErrNotFound       = errors.New("not found")
	ErrCorruptHistory = errors.New("history content corrupt")
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}
