package softcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key was never cached or its value
	// was reclaimed. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("softcache: key not found")

	// ErrInsertionFailure marks a Put that failed after every retry.
	ErrInsertionFailure = errors.New("softcache: insertion failed")

	// ErrCapacity is the per-attempt insertion failure when MaxEntries is reached.
	ErrCapacity = errors.New("softcache: table full")

	// ErrClosed is returned by Put after Close.
	ErrClosed = errors.New("softcache: cache is closed")
)

// InsertError is returned by Put once the bounded retry sequence is exhausted.
type InsertError struct {
	Key      string
	Attempts int
	Err      error // cause of the last attempt
}

func (e *InsertError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("put %q: insertion failed after %d attempts", e.Key, e.Attempts)
	}
	return fmt.Sprintf("put %q: insertion failed after %d attempts: %v", e.Key, e.Attempts, e.Err)
}

func (e *InsertError) Unwrap() []error {
	errs := make([]error, 0, 2)
	errs = append(errs, ErrInsertionFailure)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
