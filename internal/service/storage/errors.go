package storage

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrInvalidEvent        = errors.New("event has no id")
	ErrCorrupt             = errors.New("stored value is not valid json")
)

// StorageError reports a failed read or write of a durable record.
// Callers treat it as non-fatal.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err carries a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
