package store

import (
	"errors"
	"fmt"
)

// ErrRunNotFound is returned by Get for an unknown or evicted run ID.
var ErrRunNotFound = errors.New("store: run not found")

// ErrAdapterClosed is returned by an adapter after Close.
var ErrAdapterClosed = errors.New("store: adapter closed")

// SerializationError reports a run record, or a whole history file, that
// could not be encoded or decoded. Key is the run ID or the file path.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("store: encode %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
