package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
	"github.com/mergehub/mergebot/internal/core/ports/driving"
	"github.com/mergehub/mergebot/internal/core/router"
	"github.com/mergehub/mergebot/internal/logger"
)

// transform classifies and parses pending files in batches. Every file
// in a batch reaches a terminal status; records and status updates
// commit together, so a crash between batches loses at most one
// uncommitted batch and never leaves half-parsed state behind.
func (p *Pipeline) transform(ctx context.Context, summary *driving.RunSummary) error {
	pending, err := p.fileStore.Pending(ctx)
	if err != nil {
		return fmt.Errorf("listing pending files: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("No pending files")
		return nil
	}
	logger.Info("Transforming %d pending files", len(pending))

	selectors := make(map[string]domain.SourceSelector, len(p.plans))
	for _, plan := range p.plans {
		selectors[plan.Source.ID] = plan.Selector
	}

	for start := 0; start < len(pending); start += p.opts.BatchSize {
		end := start + p.opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := p.transformBatch(ctx, pending[start:end], selectors, summary); err != nil {
			return err
		}
	}
	return nil
}

// transformBatch parses one batch and commits it atomically.
func (p *Pipeline) transformBatch(
	ctx context.Context,
	batch []domain.IngestedFile,
	selectors map[string]domain.SourceSelector,
	summary *driving.RunSummary,
) error {
	var rows []driven.RecordRow
	statuses := make([]driven.FileStatusUpdate, 0, len(batch))

	for _, file := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}

		fileRows, update := p.transformFile(ctx, file, selectors[file.SourceID])
		rows = append(rows, fileRows...)
		statuses = append(statuses, update)

		switch update.Status {
		case domain.StatusProcessed:
			summary.FilesProcessed++
		case domain.StatusRejected:
			summary.FilesRejected++
		case domain.StatusError:
			summary.FilesErrored++
		}
	}
	summary.RecordsAdded += len(rows)

	if err := p.recordStore.AddBatch(ctx, rows, statuses); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	logger.Debug("committed batch: %d files, %d records", len(batch), len(rows))
	return nil
}

// transformFile resolves one pending file to records plus its terminal
// status. Failures are captured in the status, never propagated: one
// bad file must not poison its batch.
func (p *Pipeline) transformFile(
	_ context.Context,
	file domain.IngestedFile,
	selector domain.SourceSelector,
) ([]driven.RecordRow, driven.FileStatusUpdate) {
	content, err := p.blobs.Get(file.ContentHash)
	if err != nil {
		return nil, terminal(file, domain.StatusError, fmt.Errorf("loading blob: %w", err))
	}

	formatID, err := router.Classify(file.Filename, content, selector)
	if err != nil {
		status := domain.StatusError
		if errors.Is(err, domain.ErrUnsafeContent) || errors.Is(err, domain.ErrFormatNotAllowed) {
			status = domain.StatusRejected
		}
		return nil, terminal(file, status, err)
	}

	handler, err := p.registry.Get(formatID)
	if err != nil {
		return nil, terminal(file, domain.StatusError, err)
	}

	outputs, err := handler.Parse(content, driven.FileMeta{
		SourceID:    file.SourceID,
		Filename:    file.Filename,
		ContentHash: file.ContentHash,
	})
	if err != nil {
		return nil, terminal(file, domain.StatusError, fmt.Errorf("parsing %s: %w", formatID, err))
	}

	rows := make([]driven.RecordRow, 0, len(outputs))
	for _, out := range outputs {
		rows = append(rows, driven.RecordRow{
			SourceContentHash: file.ContentHash,
			Type:              formatID,
			UniqueHash:        out.UniqueHash,
			Payload:           out.Payload,
		})
	}
	logger.Debug("parsed %s as %s: %d records", file.Filename, formatID, len(rows))
	return rows, terminal(file, domain.StatusProcessed, nil)
}

func terminal(file domain.IngestedFile, status domain.FileStatus, err error) driven.FileStatusUpdate {
	update := driven.FileStatusUpdate{
		FileID: file.ID,
		Status: status,
	}
	if err != nil {
		update.Error = err.Error()
	}
	return update
}
