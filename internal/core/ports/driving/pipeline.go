// Package driving defines the ports through which the outside world
// drives the core: the CLI invokes a pipeline run and inspects its
// state through these interfaces.
package driving

import (
	"context"
	"time"

	"github.com/mergehub/mergebot/internal/core/domain"
)

// RunSummary reports what one pipeline run did.
type RunSummary struct {
	// RunID uniquely identifies the run in logs and publication
	// metadata.
	RunID string

	StartedAt  time.Time
	FinishedAt time.Time

	// Ingest phase.
	SourcesChecked int
	ItemsFetched   int
	ItemsSkipped   int

	// Transform phase.
	FilesProcessed int
	FilesRejected  int
	FilesErrored   int
	RecordsAdded   int

	// Build phase.
	ArtifactsBuilt   int
	ArtifactsChanged int
	Published        int
	PublishFailures  int

	// Cleanup phase.
	BlobsPruned    int
	ArchivesPruned int
}

// Duration returns the wall-clock run time.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// PipelineRunner executes the full ingest, transform, build, cleanup
// sequence. Phases run strictly in order; a later phase never starts
// while an earlier one has work in flight.
type PipelineRunner interface {
	Run(ctx context.Context) (*RunSummary, error)
}

// StatusReport is a point-in-time view of the pipeline state.
type StatusReport struct {
	Sources       []domain.Source
	FileCounts    map[domain.FileStatus]int
	ActiveRecords int
}

// StatusReporter summarises stored pipeline state without running
// anything.
type StatusReporter interface {
	Status(ctx context.Context) (*StatusReport, error)
}
