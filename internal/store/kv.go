package store

import (
	"context"
	"errors"
	"fmt"
)

// KV is a string key-value store.
type KV interface {
	// Get returns the value for key. A missing key is ("", false, nil).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Error describes a failed storage operation.
type Error struct {
	Op      string // "get", "set", "remove", "open"
	Backend string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is (or wraps) a storage failure.
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

func wrap(backend, op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Backend: backend, Key: key, Err: err}
}
