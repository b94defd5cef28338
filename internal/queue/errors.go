package queue

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the queue error taxonomy. Callers classify failures
// with errors.Is rather than matching message text.
var (
	// ErrValidation marks malformed or missing input on create or update.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an unknown job id on a single-job operation.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks a status change outside the transition table.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConflict marks a narration mutation attempted past the allowed stage.
	ErrConflict = errors.New("conflict")

	// ErrPersistence marks an underlying store read or write failure. The
	// queue core never retries these; retry policy belongs to the caller.
	ErrPersistence = errors.New("persistence error")
)

// ErrCorruptStore marks a store file that exists but cannot be parsed. It is
// a persistence error, kept distinct from a missing file so a corrupted queue
// is never silently replaced with an empty one.
var ErrCorruptStore = fmt.Errorf("%w: corrupt store", ErrPersistence)
