package domain

import "time"

// Source is a configured origin of content. Each source is driven by a
// connector of the matching Type; the connector owns the opaque State
// blob and is the only component that interprets it.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Type identifies the connector kind (e.g. "telegram", "filesystem").
	Type string

	// LastCheck is when the source was last ingested.
	LastCheck time.Time

	// State is the connector-private cursor/offset blob, stored as JSON.
	// The core never interprets it.
	State []byte
}

// SourceSelector restricts which formats a source may contribute.
// An empty list (or the literal "all") permits every format.
type SourceSelector struct {
	IncludeFormats []FormatID
}

// Allows reports whether the selector permits the given format.
func (s SourceSelector) Allows(f FormatID) bool {
	if len(s.IncludeFormats) == 0 {
		return true
	}
	for _, inc := range s.IncludeFormats {
		if inc == "all" || inc == f {
			return true
		}
	}
	return false
}

// FetchWindow tells a connector how far back to look for new content.
// Text (message) and file content have independent lookbacks, and a
// source's first-ever run uses wider windows than subsequent runs.
type FetchWindow struct {
	// MessageLookback bounds how far back to scan for text content.
	MessageLookback time.Duration

	// FileLookback bounds how far back to scan for file content.
	FileLookback time.Duration

	// FirstRun is true when the source has no prior cursor; connectors
	// may use it to prefer the lookback over their stored offset.
	FirstRun bool
}

// FetchWindowDefaults resolves the fetch window for a source. First
// runs look back two hours for messages and two days for files;
// later runs rely on the connector's cursor.
func FetchWindowDefaults(firstRun bool) FetchWindow {
	if firstRun {
		return FetchWindow{
			MessageLookback: 2 * time.Hour,
			FileLookback:    48 * time.Hour,
			FirstRun:        true,
		}
	}
	return FetchWindow{}
}
