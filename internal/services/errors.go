package services

import (
	"errors"
	"fmt"
)

// Error kinds. Ledger failures wrap exactly one of these.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)

// LedgerError is a recoverable failure carrying a client-facing message
type LedgerError struct {
	Kind    error
	Message string
}

func (e *LedgerError) Error() string { return e.Message }

// Unwrap exposes the error kind to errors.Is
func (e *LedgerError) Unwrap() error { return e.Kind }

func notFound(format string, args ...interface{}) error {
	return &LedgerError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...interface{}) error {
	return &LedgerError{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...interface{}) error {
	return &LedgerError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// StorageError reports that durable state could not be read or written.
// It is fatal: durable state may no longer match what the caller was told.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying I/O error
func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err is or wraps a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
