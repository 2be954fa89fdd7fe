package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict indicates another writer already summarised the bucket.
	ErrConflict = errors.New("rollup bucket already summarised")
	// ErrUserRequired is returned when an operation is missing a user id.
	ErrUserRequired = errors.New("user_id is required")
)

// ValidationError rejects input before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a persistence failure. Callers retry the whole operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
