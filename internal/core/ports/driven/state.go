package driven

import (
	"context"

	"github.com/mergehub/mergebot/internal/core/domain"
)

// FileStatusUpdate is one terminal status transition applied during a
// transform batch commit. FileID identifies the ingested-file row:
// status is owned per (source, external id), so two files carrying
// identical content transition independently.
type FileStatusUpdate struct {
	FileID int64
	Status domain.FileStatus
	Error  string
}

// RecordRow is one record insert accumulated during a transform batch.
type RecordRow struct {
	SourceContentHash string
	Type              domain.FormatID
	UniqueHash        string
	Payload           map[string]any
}

// SourceStore persists sources and their connector-private state.
type SourceStore interface {
	// Save creates or updates a source row.
	Save(ctx context.Context, source domain.Source) error

	// Get retrieves a source by id, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// UpdateState stores the connector cursor blob and bumps the
	// last-check timestamp.
	UpdateState(ctx context.Context, id string, state []byte) error

	// List returns all sources.
	List(ctx context.Context) ([]domain.Source, error)
}

// FileStore persists ingested files and their processing status.
type FileStore interface {
	// HasSeen reports whether (sourceID, externalID) was ingested
	// before, regardless of its status.
	HasSeen(ctx context.Context, sourceID, externalID string) (bool, error)

	// Record inserts a pending file row. Inserting an already-seen
	// (sourceID, externalID) pair is a no-op and leaves the existing
	// row untouched.
	Record(ctx context.Context, file domain.IngestedFile) error

	// Pending returns all files awaiting transformation.
	Pending(ctx context.Context) ([]domain.IngestedFile, error)

	// UpdateStatusBatch applies terminal status transitions. Called
	// only from transform batch commits.
	UpdateStatusBatch(ctx context.Context, updates []FileStatusUpdate) error

	// UnprocessedHashes returns content hashes of files not yet in a
	// terminal processed state. Cleanup must not prune these blobs.
	UnprocessedHashes(ctx context.Context) ([]string, error)

	// StatusCounts returns the number of files per status.
	StatusCounts(ctx context.Context) (map[domain.FileStatus]int, error)
}

// RecordStore persists extracted records.
type RecordStore interface {
	// AddBatch inserts record rows in a single transaction, together
	// with the status updates of the batch that produced them.
	AddBatch(ctx context.Context, rows []RecordRow, statuses []FileStatusUpdate) error

	// ForBuild returns active records of the given types originating
	// from the given sources, one per unique hash, in stable
	// first-seen order.
	ForBuild(ctx context.Context, types []domain.FormatID, sourceIDs []string) ([]domain.Record, error)

	// ActiveContentHashes returns the source content hashes referenced
	// by active records. Cleanup must not prune these blobs.
	ActiveContentHashes(ctx context.Context) ([]string, error)

	// ActiveCount returns the number of active records.
	ActiveCount(ctx context.Context) (int, error)
}

// PublishedStore persists the publication history used for change
// detection.
type PublishedStore interface {
	// LastHash returns the most recent artifact hash published under
	// the route name, or "" when nothing was published yet.
	LastHash(ctx context.Context, routeName string) (string, error)

	// MarkPublished appends a publication row.
	MarkPublished(ctx context.Context, artifact domain.PublishedArtifact) error
}
