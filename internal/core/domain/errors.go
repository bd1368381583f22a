package domain

import "errors"

// Domain errors represent pipeline-level failures. These are distinct
// from infrastructure errors and are matched with errors.Is.
var (
	// ErrNotFound indicates a requested entity or blob does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsafeContent indicates content matching an executable
	// package signature. Such content is rejected before it reaches
	// the content store.
	ErrUnsafeContent = errors.New("unsafe content")

	// ErrFormatNotAllowed indicates the resolved format is excluded by
	// the source's selector. Distinct from a silent drop so the
	// rejection reason survives into diagnostics.
	ErrFormatNotAllowed = errors.New("format not permitted")

	// ErrUnknownFormat indicates a format id with no registered handler.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrUnsupportedType indicates an unknown connector type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrRunLocked indicates another pipeline invocation holds the
	// run lock for the same state store.
	ErrRunLocked = errors.New("another run is in progress")
)
