package services

import (
	"context"
	"fmt"

	"github.com/mergehub/mergebot/internal/core/ports/driving"
	"github.com/mergehub/mergebot/internal/logger"
)

// cleanup prunes blobs nothing references anymore and expires old
// archive copies. A blob survives while any active record references
// it or while its file is still pending, so cleanup can never eat
// content a later phase still needs.
func (p *Pipeline) cleanup(ctx context.Context, summary *driving.RunSummary) error {
	protected := make(map[string]bool)

	active, err := p.recordStore.ActiveContentHashes(ctx)
	if err != nil {
		return fmt.Errorf("loading active hashes: %w", err)
	}
	for _, h := range active {
		protected[h] = true
	}

	pending, err := p.fileStore.UnprocessedHashes(ctx)
	if err != nil {
		return fmt.Errorf("loading unprocessed hashes: %w", err)
	}
	for _, h := range pending {
		protected[h] = true
	}

	stored, err := p.blobs.List()
	if err != nil {
		return fmt.Errorf("listing blobs: %w", err)
	}
	for _, hash := range stored {
		if err := ctx.Err(); err != nil {
			return err
		}
		if protected[hash] {
			continue
		}
		if err := p.blobs.Delete(hash); err != nil {
			return fmt.Errorf("pruning blob: %w", err)
		}
		summary.BlobsPruned++
		logger.Debug("pruned blob %.12s", hash)
	}

	archived, err := p.sink.PruneArchive(p.opts.RetentionDays)
	if err != nil {
		return fmt.Errorf("pruning archive: %w", err)
	}
	summary.ArchivesPruned = archived

	if summary.BlobsPruned > 0 || archived > 0 {
		logger.Info("pruned %d blobs, %d archived artifacts", summary.BlobsPruned, archived)
	}
	return nil
}
