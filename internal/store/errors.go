package store

import "errors"

var (
	// ErrInvalidWindow rejects upserts whose comment window ends before it
	// starts. Callers skip the record and continue the batch.
	ErrInvalidWindow = errors.New("invalid comment window")

	// ErrAlreadyDelivered signals a delivery receipt already exists for the
	// (document, stage) pair. Callers must treat it as success-no-op: a
	// previous attempt already landed.
	ErrAlreadyDelivered = errors.New("stage already delivered")

	// ErrNotFound reports a lookup for an unknown document identifier.
	ErrNotFound = errors.New("comment period not found")
)
