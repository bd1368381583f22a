package telegram

import (
	"encoding/json"
	"time"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// Cursor tracks fetch state for one source.
type Cursor struct {
	// Version is the schema version for future migrations.
	Version int `json:"v"`

	// Offset is the next update_id to request from getUpdates.
	Offset int64 `json:"offset"`

	// LastMessageAt is the timestamp of the newest message seen.
	LastMessageAt time.Time `json:"last_message_at,omitempty"`
}

// NewCursor creates a new empty cursor.
func NewCursor() *Cursor {
	return &Cursor{Version: CursorVersion}
}

// Encode serializes the cursor to JSON. The store treats it opaquely.
func (c *Cursor) Encode() []byte {
	if c == nil {
		return []byte("{}")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// DecodeCursor deserializes a cursor blob. Empty or invalid input
// yields a fresh cursor rather than an error, so a corrupt cursor
// degrades to a wider fetch instead of a stuck source.
func DecodeCursor(data []byte) *Cursor {
	if len(data) == 0 {
		return NewCursor()
	}
	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return NewCursor()
	}
	if cursor.Version == 0 {
		cursor.Version = CursorVersion
	}
	return &cursor
}
