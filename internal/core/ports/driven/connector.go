package driven

import (
	"context"
	"time"

	"github.com/mergehub/mergebot/internal/core/domain"
)

// FetchItem is one unit of content yielded by a connector.
type FetchItem struct {
	// ExternalID is the source-scoped identifier of the item. Together
	// with the source id it forms the no-duplicate-ingestion key.
	ExternalID string

	// Filename is the source-provided name, used only as a routing
	// hint, never for identity.
	Filename string

	// Content is the raw fetched bytes.
	Content []byte

	// ObservedAt is when the item appeared at the source.
	ObservedAt time.Time
}

// Connector fetches content from one kind of remote source. Connectors
// own transport concerns (retry, backoff, rate limits, content-type
// prefiltering); the core treats each Fetch as a finite sequence.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Fetch yields new items for the source since its stored cursor,
	// bounded by the resolved fetch window. Items and errors arrive on
	// channels; both are closed when the sequence ends. The final
	// connector state to persist is returned via State after the item
	// channel closes.
	Fetch(ctx context.Context, state []byte, window domain.FetchWindow) (<-chan FetchItem, <-chan error)

	// State returns the connector-private cursor blob to persist after
	// a completed Fetch. The core stores it opaquely on the source.
	State() []byte

	// Close releases resources.
	Close() error
}

// ConnectorFactory builds a connector for a configured source.
type ConnectorFactory interface {
	// Create returns a connector for the source, or
	// domain.ErrUnsupportedType for unknown source types.
	Create(ctx context.Context, source domain.Source) (Connector, error)
}
