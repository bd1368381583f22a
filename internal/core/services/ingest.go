package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
	"github.com/mergehub/mergebot/internal/core/ports/driving"
	"github.com/mergehub/mergebot/internal/core/router"
	"github.com/mergehub/mergebot/internal/logger"
)

// ingest fetches new content from every configured source through a
// bounded worker pool. Each source is handled by exactly one worker,
// so connector state updates never race.
func (p *Pipeline) ingest(ctx context.Context, summary *driving.RunSummary) error {
	if err := p.syncSources(ctx); err != nil {
		return err
	}

	queue := make(chan SourcePlan, len(p.plans))
	for _, plan := range p.plans {
		queue <- plan
	}
	close(queue)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.opts.Workers; i++ {
		g.Go(func() error {
			for plan := range queue {
				stats, err := p.ingestSource(gctx, plan)
				if err != nil {
					// One broken source never aborts the run; the
					// others still ingest.
					logger.Warn("ingest %s: %v", plan.Source.ID, err)
				}
				mu.Lock()
				summary.SourcesChecked++
				summary.ItemsFetched += stats.fetched
				summary.ItemsSkipped += stats.skipped
				mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}

// syncSources upserts configured sources so stored rows exist before
// connectors run.
func (p *Pipeline) syncSources(ctx context.Context) error {
	for i, plan := range p.plans {
		stored, err := p.sourceStore.Get(ctx, plan.Source.ID)
		switch {
		case err == nil:
			p.plans[i].Source = *stored
		case errors.Is(err, domain.ErrNotFound):
			if err := p.sourceStore.Save(ctx, plan.Source); err != nil {
				return fmt.Errorf("saving source %s: %w", plan.Source.ID, err)
			}
		default:
			return fmt.Errorf("loading source %s: %w", plan.Source.ID, err)
		}
	}
	return nil
}

type ingestStats struct {
	fetched int
	skipped int
}

// ingestSource runs one connector to completion and persists its
// cursor afterwards.
func (p *Pipeline) ingestSource(ctx context.Context, plan SourcePlan) (ingestStats, error) {
	var stats ingestStats
	source := plan.Source

	connector, err := p.factory.Create(ctx, source)
	if err != nil {
		return stats, fmt.Errorf("creating connector: %w", err)
	}
	defer connector.Close()

	window := domain.FetchWindowDefaults(source.LastCheck.IsZero())
	items, errs := connector.Fetch(ctx, source.State, window)

	for items != nil || errs != nil {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return stats, fmt.Errorf("connector error: %w", err)
			}

		case item, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			ingested, err := p.ingestItem(ctx, source.ID, item)
			if err != nil {
				logger.Warn("ingest %s item %s: %v", source.ID, item.ExternalID, err)
				continue
			}
			if ingested {
				stats.fetched++
			} else {
				stats.skipped++
			}
		}
	}

	if err := p.sourceStore.UpdateState(ctx, source.ID, connector.State()); err != nil {
		return stats, fmt.Errorf("saving connector state: %w", err)
	}
	return stats, nil
}

// ingestItem stores one fetched item: dedup check, safety check, blob
// write, file row. Unsafe content is recorded as rejected without its
// bytes ever touching the blob store.
func (p *Pipeline) ingestItem(ctx context.Context, sourceID string, item driven.FetchItem) (bool, error) {
	seen, err := p.fileStore.HasSeen(ctx, sourceID, item.ExternalID)
	if err != nil {
		return false, fmt.Errorf("checking seen: %w", err)
	}
	if seen {
		logger.Debug("skip %s: already seen", item.ExternalID)
		return false, nil
	}

	if err := router.CheckSafety(item.Filename, item.Content); err != nil {
		logger.Debug("reject %s: %v", item.ExternalID, err)
		return false, p.fileStore.Record(ctx, domain.IngestedFile{
			SourceID:   sourceID,
			ExternalID: item.ExternalID,
			Size:       int64(len(item.Content)),
			Filename:   item.Filename,
			Status:     domain.StatusRejected,
			Error:      err.Error(),
		})
	}

	hash, err := p.blobs.Put(item.Content)
	if err != nil {
		return false, fmt.Errorf("storing blob: %w", err)
	}

	file := domain.IngestedFile{
		SourceID:    sourceID,
		ExternalID:  item.ExternalID,
		ContentHash: hash,
		Size:        int64(len(item.Content)),
		Filename:    item.Filename,
		Status:      domain.StatusPending,
	}
	if err := p.fileStore.Record(ctx, file); err != nil {
		return false, fmt.Errorf("recording file: %w", err)
	}
	logger.Debug("ingested %s (%d bytes, %.12s)", item.ExternalID, file.Size, hash)
	return true, nil
}
