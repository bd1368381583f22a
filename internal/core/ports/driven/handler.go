package driven

import (
	"github.com/mergehub/mergebot/internal/core/domain"
)

// FileMeta carries the per-file context a handler may use when
// parsing. Handlers are pure: no I/O, no state access.
type FileMeta struct {
	SourceID    string
	Filename    string
	ContentHash string
}

// ParseOutput is one normalized record produced by a handler. Line
// handlers emit one per surviving line; opaque handlers emit exactly
// one descriptor for the whole file.
type ParseOutput struct {
	UniqueHash string
	Payload    map[string]any
}

// FormatHandler decodes one format id on the way in and re-encodes the
// merged record set on the way out.
type FormatHandler interface {
	// FormatID returns the format this handler serves.
	FormatID() domain.FormatID

	// Parse turns raw bytes into zero or more normalized records.
	Parse(content []byte, meta FileMeta) ([]ParseOutput, error)

	// Build merges deduplicated records into one publishable artifact.
	// Opaque handlers read constituent blobs through the provided
	// store.
	Build(records []domain.Record, blobs BlobStore) ([]byte, error)
}

// HandlerRegistry resolves format ids to handlers. It is constructed
// once at startup and passed by reference to the phases that need it;
// there is no ambient global registry.
type HandlerRegistry interface {
	// Register adds a handler. Registering the same format twice
	// replaces the earlier handler.
	Register(handler FormatHandler)

	// Get returns the handler for a format id, or
	// domain.ErrUnknownFormat.
	Get(id domain.FormatID) (FormatHandler, error)

	// Formats returns all registered format ids.
	Formats() []domain.FormatID
}
