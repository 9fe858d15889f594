package storage

import (
	"errors"
	"fmt"
)

// WrongTypeError is returned when an operation expecting type Expected finds
// the key already holds a different type tag.
type WrongTypeError struct {
	Expected byte
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("storage: wrong type, expected %q", e.Expected)
}

// ErrWrongFormat is returned when a counter's current payload does not parse
// as the numeric type the increment operation needs.
var ErrWrongFormat = errors.New("storage: value is not the expected numeric format")

// ErrIntegerOverflow is returned when an int64 increment would overflow.
var ErrIntegerOverflow = errors.New("storage: integer overflow")

// ErrInvalidTime is the typed error for a TTL that cannot be represented.
// No operation in this package returns it: a negative relative duration is
// accepted and leaves the key already expired.
var ErrInvalidTime = errors.New("storage: invalid time")

// StoreError wraps a failure from the underlying engine that isn't one of
// the typed errors above; the cause is preserved for logging but the
// command layer must never leak it verbatim to a client.
type StoreError struct {
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storage: store error: %s", e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func wrongType(expected byte) error {
	return &WrongTypeError{Expected: expected}
}

func storeError(cause error) error {
	return &StoreError{Cause: cause}
}
