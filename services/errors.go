package services

import "errors"

// Provider errors. Callers tell them apart with errors.Is.
var (
	// ErrUnrecognizedAddress means the address matched no registered shape.
	// No store operation runs.
	ErrUnrecognizedAddress = errors.New("unrecognized address")

	// ErrInsertFailed means the store rejected the row or produced no valid id.
	ErrInsertFailed = errors.New("failed to insert row")

	// ErrNotImplemented is returned by operations this provider does not support.
	ErrNotImplemented = errors.New("not yet implemented")
)
