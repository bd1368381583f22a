package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
	"github.com/mergehub/mergebot/internal/core/ports/driving"
	"github.com/mergehub/mergebot/internal/logger"
)

// Ensure Pipeline implements the interfaces.
var (
	_ driving.PipelineRunner = (*Pipeline)(nil)
	_ driving.StatusReporter = (*Pipeline)(nil)
)

// SourcePlan is one configured source together with its format
// selector, resolved from configuration before a run starts.
type SourcePlan struct {
	Source   domain.Source
	Selector domain.SourceSelector
}

// Options tune a pipeline run.
type Options struct {
	// Workers is the ingest worker pool size.
	Workers int

	// BatchSize bounds how many pending files one transform batch
	// commits together.
	BatchSize int

	// RetentionDays bounds the artifact archive age.
	RetentionDays int

	// DevExports enables the decoded proxy exports.
	DevExports bool
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 200
	}
	if o.RetentionDays <= 0 {
		o.RetentionDays = 4
	}
}

// Pipeline coordinates one full run: ingest, transform, build,
// cleanup, strictly in that order.
type Pipeline struct {
	sourceStore    driven.SourceStore
	fileStore      driven.FileStore
	recordStore    driven.RecordStore
	publishedStore driven.PublishedStore
	blobs          driven.BlobStore
	factory        driven.ConnectorFactory
	registry       driven.HandlerRegistry
	publisher      driven.Publisher
	sink           driven.ArtifactSink

	plans  []SourcePlan
	routes []domain.Route
	opts   Options
}

// NewPipeline creates a pipeline over the injected stores and
// adapters. The publisher may be nil for local-only runs; build output
// is still produced.
func NewPipeline(
	sourceStore driven.SourceStore,
	fileStore driven.FileStore,
	recordStore driven.RecordStore,
	publishedStore driven.PublishedStore,
	blobs driven.BlobStore,
	factory driven.ConnectorFactory,
	registry driven.HandlerRegistry,
	publisher driven.Publisher,
	sink driven.ArtifactSink,
	plans []SourcePlan,
	routes []domain.Route,
	opts Options,
) *Pipeline {
	opts.applyDefaults()
	return &Pipeline{
		sourceStore:    sourceStore,
		fileStore:      fileStore,
		recordStore:    recordStore,
		publishedStore: publishedStore,
		blobs:          blobs,
		factory:        factory,
		registry:       registry,
		publisher:      publisher,
		sink:           sink,
		plans:          plans,
		routes:         routes,
		opts:           opts,
	}
}

// Run executes all four phases. Each phase drains completely before
// the next starts; a phase error aborts the run with whatever earlier
// phases already committed left intact.
func (p *Pipeline) Run(ctx context.Context) (*driving.RunSummary, error) {
	summary := &driving.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	logger.Info("Starting run %s", summary.RunID)

	logger.Section("Ingest")
	if err := p.ingest(ctx, summary); err != nil {
		return summary, fmt.Errorf("ingest phase: %w", err)
	}

	logger.Section("Transform")
	if err := p.transform(ctx, summary); err != nil {
		return summary, fmt.Errorf("transform phase: %w", err)
	}

	logger.Section("Build")
	if err := p.build(ctx, summary); err != nil {
		return summary, fmt.Errorf("build phase: %w", err)
	}

	logger.Section("Cleanup")
	if err := p.cleanup(ctx, summary); err != nil {
		return summary, fmt.Errorf("cleanup phase: %w", err)
	}

	summary.FinishedAt = time.Now().UTC()
	logger.Info("Run complete in %s: %d fetched, %d records, %d artifacts, %d published",
		summary.Duration().Round(time.Millisecond), summary.ItemsFetched,
		summary.RecordsAdded, summary.ArtifactsBuilt, summary.Published)
	return summary, nil
}

// Status summarises stored pipeline state.
func (p *Pipeline) Status(ctx context.Context) (*driving.StatusReport, error) {
	sources, err := p.sourceStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	counts, err := p.fileStore.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting files: %w", err)
	}
	active, err := p.recordStore.ActiveCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	return &driving.StatusReport{
		Sources:       sources,
		FileCounts:    counts,
		ActiveRecords: active,
	}, nil
}
