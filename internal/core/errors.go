package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrNotFound        = errors.New("record not found")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StoreError wraps a failure returned by the record store. The underlying
// error is preserved for errors.Is/As.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStoreFailure reports whether err came from the record store.
func IsStoreFailure(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
