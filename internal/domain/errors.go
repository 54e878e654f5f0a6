package domain

import (
	"errors"
	"fmt"
)

// Error classes shared by every layer. Transports map them to status codes with errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransaction is returned when a transaction sequence cannot be replayed
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrMalformedInput is returned when a number, date or identifier cannot be parsed
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidInput is returned when well-formed input violates an entity rule
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a uniqueness or lifecycle rule blocks the operation
	ErrConflict = errors.New("conflict")
)

// InvalidTransactionf builds an ErrInvalidTransaction error carrying a user-facing reason
func InvalidTransactionf(format string, args ...any) error {
	return &reasonError{class: ErrInvalidTransaction, reason: fmt.Sprintf(format, args...)}
}

// MalformedInputf builds an ErrMalformedInput error carrying a user-facing reason
func MalformedInputf(format string, args ...any) error {
	return &reasonError{class: ErrMalformedInput, reason: fmt.Sprintf(format, args...)}
}

// InvalidInputf builds an ErrInvalidInput error carrying a user-facing reason
func InvalidInputf(format string, args ...any) error {
	return &reasonError{class: ErrInvalidInput, reason: fmt.Sprintf(format, args...)}
}

// Conflictf builds an ErrConflict error carrying a user-facing reason
func Conflictf(format string, args ...any) error {
	return &reasonError{class: ErrConflict, reason: fmt.Sprintf(format, args...)}
}

// NotFoundf builds an ErrNotFound error carrying a user-facing reason
func NotFoundf(format string, args ...any) error {
	return &reasonError{class: ErrNotFound, reason: fmt.Sprintf(format, args...)}
}

// reasonError keeps the message free of the class prefix so it can be shown to users as is.
type reasonError struct {
	class  error
	reason string
}

func (e *reasonError) Error() string { return e.reason }

func (e *reasonError) Is(target error) bool { return target == e.class }

// Reason returns the user-facing reason carried by err, dropping the wrapping context added on the
// way up. Errors without a reason return ok=false.
func Reason(err error) (string, bool) {
	var re *reasonError
	if errors.As(err, &re) {
		return re.reason, true
	}
	return "", false
}
