package driven

import (
	"context"

	"github.com/mergehub/mergebot/internal/core/domain"
)

// Publisher delivers a built artifact to a destination. The core
// supplies the change-detection verdict through artifact.Changed;
// publish failures are reported but never roll back a build.
type Publisher interface {
	Publish(ctx context.Context, artifact domain.Artifact, dest domain.Destination) error
}

// ArtifactSink persists built artifacts locally: the current output
// per route/format plus timestamped archive copies.
type ArtifactSink interface {
	// SaveInternal stores a hash-named internal copy and returns the
	// artifact hash.
	SaveInternal(routeName string, name string, data []byte) (string, error)

	// SaveOutput overwrites the user-facing output file and archives a
	// timestamped copy.
	SaveOutput(name string, data []byte) error

	// PruneArchive removes archive copies older than the retention
	// period.
	PruneArchive(retentionDays int) (int, error)
}
