package domain

import "time"

// Record is one normalized entry extracted from an ingested file.
// UniqueHash is computed over the record's canonical form, not its raw
// bytes, so cosmetic variation across sources collapses to one record
// per build. Records are never mutated, only superseded.
type Record struct {
	ID int64

	// SourceContentHash back-references the blob the record came from.
	SourceContentHash string

	// Type is the format id (or proxy scheme family) that produced it.
	Type FormatID

	// UniqueHash is the dedup key over the canonicalized payload.
	UniqueHash string

	// Payload is the structured record data, stored as JSON.
	Payload map[string]any

	CreatedAt time.Time
	IsActive  bool
}

// Line returns the canonical config line carried by a line-based
// record, or "" for opaque descriptors.
func (r Record) Line() string {
	if line, ok := r.Payload["line"].(string); ok {
		return line
	}
	return ""
}

// BlobHash returns the content hash carried by an opaque descriptor
// record, or "" for line-based records.
func (r Record) BlobHash() string {
	if h, ok := r.Payload["blob_hash"].(string); ok {
		return h
	}
	return ""
}

// DescriptorFilename returns the original filename carried by an
// opaque descriptor record.
func (r Record) DescriptorFilename() string {
	if name, ok := r.Payload["filename"].(string); ok {
		return name
	}
	return ""
}
