package types

import (
	"errors"
	"fmt"
)

// Error categories for a digest run. Use errors.Is to classify.
var (
	// ErrEnumeration indicates the root directory could not be traversed.
	ErrEnumeration = errors.New("enumeration failed")

	// ErrDigestIO indicates a single file could not be opened or read.
	ErrDigestIO = errors.New("digest I/O failed")

	// ErrOutputWrite indicates the result artifact could not be written.
	ErrOutputWrite = errors.New("output write failed")

	// ErrViewerLaunch indicates the artifact viewer could not be started.
	ErrViewerLaunch = errors.New("viewer launch failed")
)

// DigestIOError records why one file could not be digested.
type DigestIOError struct {
	// Path is the file that failed.
	Path string

	// Op is the failing operation: "open", "read" or "close".
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *DigestIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DigestIOError) Unwrap() error {
	return e.Err
}

// Is matches ErrDigestIO.
func (e *DigestIOError) Is(target error) bool {
	return target == ErrDigestIO
}
