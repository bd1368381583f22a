package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driving"
	"github.com/mergehub/mergebot/internal/formats"
	"github.com/mergehub/mergebot/internal/logger"
)

// build merges deduplicated records into one artifact per route/format
// pair, detects changes against the publication history, and delivers
// changed artifacts to route destinations. Build output is always
// written locally; only outbound publication honours the change flag.
func (p *Pipeline) build(ctx context.Context, summary *driving.RunSummary) error {
	devLines := make(map[string]bool)

	for _, route := range p.routes {
		for _, format := range route.Formats {
			artifact, lines, err := p.buildArtifact(ctx, route, format)
			if err != nil {
				return err
			}
			if artifact == nil {
				continue
			}
			summary.ArtifactsBuilt++
			if artifact.Changed {
				summary.ArtifactsChanged++
			}

			for _, line := range lines {
				devLines[line] = true
			}

			if err := p.saveDerived(*artifact, lines); err != nil {
				return err
			}
			if err := p.publishArtifact(ctx, *artifact, route, summary); err != nil {
				return err
			}
		}
	}

	if p.opts.DevExports && len(devLines) > 0 {
		if err := p.saveDevExports(devLines); err != nil {
			return err
		}
	}
	return nil
}

// buildArtifact merges the route's records for one format. Returns nil
// when the route has no records of that format yet.
func (p *Pipeline) buildArtifact(ctx context.Context, route domain.Route, format domain.FormatID) (*domain.Artifact, []string, error) {
	records, err := p.recordStore.ForBuild(ctx, []domain.FormatID{format}, route.FromSources)
	if err != nil {
		return nil, nil, fmt.Errorf("loading records for %s/%s: %w", route.Name, format, err)
	}
	if len(records) == 0 {
		logger.Debug("route %s: no %s records", route.Name, format)
		return nil, nil, nil
	}

	handler, err := p.registry.Get(format)
	if err != nil {
		return nil, nil, err
	}
	data, err := handler.Build(records, p.blobs)
	if err != nil {
		return nil, nil, fmt.Errorf("building %s/%s: %w", route.Name, format, err)
	}

	name := artifactName(route.Name, format)
	hash, err := p.sink.SaveInternal(route.Name, name, data)
	if err != nil {
		return nil, nil, fmt.Errorf("saving %s: %w", name, err)
	}
	if err := p.sink.SaveOutput(name, data); err != nil {
		return nil, nil, fmt.Errorf("saving %s: %w", name, err)
	}

	routeKey := routeKey(route.Name, format)
	last, err := p.publishedStore.LastHash(ctx, routeKey)
	if err != nil {
		return nil, nil, fmt.Errorf("loading last hash for %s: %w", routeKey, err)
	}

	artifact := &domain.Artifact{
		RouteName:   route.Name,
		Format:      format,
		Name:        name,
		Data:        data,
		Hash:        hash,
		RecordCount: len(records),
		Changed:     hash != last,
	}
	logger.Info("built %s: %d records, changed=%v", name, len(records), artifact.Changed)

	var lines []string
	if format == domain.FormatProxyText || format == domain.FormatSubscription {
		for _, r := range records {
			if line := r.Line(); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return artifact, lines, nil
}

// saveDerived writes the secondary artifacts that accompany a proxy
// text artifact: the decoded JSON report and the base64 subscription
// body some clients expect.
func (p *Pipeline) saveDerived(artifact domain.Artifact, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	decoded, err := formats.DecodeProxyLines(lines)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", artifact.Name, err)
	}
	if err := p.sink.SaveOutput(artifact.Name+".decoded.json", decoded); err != nil {
		return fmt.Errorf("saving decoded report: %w", err)
	}

	sub := base64.StdEncoding.EncodeToString(artifact.Data)
	if err := p.sink.SaveOutput(artifact.Name+".b64sub", []byte(sub)); err != nil {
		return fmt.Errorf("saving subscription body: %w", err)
	}
	return nil
}

// publishArtifact delivers the artifact to each route destination,
// honouring per-destination change semantics. A failed destination is
// counted and logged; the publication history only advances when every
// destination succeeded, so the next run retries.
func (p *Pipeline) publishArtifact(ctx context.Context, artifact domain.Artifact, route domain.Route, summary *driving.RunSummary) error {
	if p.publisher == nil || len(route.Destinations) == 0 {
		if artifact.Changed {
			return p.markPublished(ctx, artifact)
		}
		return nil
	}

	failures := 0
	for _, dest := range route.Destinations {
		if !artifact.Changed && dest.Mode == "on_change" {
			logger.Debug("skip %s -> %s: unchanged", artifact.Name, dest.ChatID)
			continue
		}
		if err := p.publisher.Publish(ctx, artifact, dest); err != nil {
			failures++
			summary.PublishFailures++
			logger.Warn("publish %s -> %s: %v", artifact.Name, dest.ChatID, err)
			continue
		}
		summary.Published++
		logger.Info("published %s -> %s", artifact.Name, dest.ChatID)
	}

	if artifact.Changed && failures == 0 {
		return p.markPublished(ctx, artifact)
	}
	return nil
}

func (p *Pipeline) markPublished(ctx context.Context, artifact domain.Artifact) error {
	err := p.publishedStore.MarkPublished(ctx, domain.PublishedArtifact{
		RouteName:    routeKey(artifact.RouteName, artifact.Format),
		ArtifactHash: artifact.Hash,
		Metadata: map[string]any{
			"name":         artifact.Name,
			"record_count": artifact.RecordCount,
		},
	})
	if err != nil {
		return fmt.Errorf("recording publication of %s: %w", artifact.Name, err)
	}
	return nil
}

// saveDevExports writes the aggregated decoded proxy exports.
func (p *Pipeline) saveDevExports(lineSet map[string]bool) error {
	lines := make([]string, 0, len(lineSet))
	for line := range lineSet {
		lines = append(lines, line)
	}
	sort.Strings(lines)

	txt := []byte(fmt.Sprintf("# mergebot export: %d entries\n", len(lines)))
	for _, line := range lines {
		txt = append(txt, line...)
		txt = append(txt, '\n')
	}
	if err := p.sink.SaveOutput("proxies.txt", txt); err != nil {
		return fmt.Errorf("saving proxy export: %w", err)
	}

	decoded, err := formats.DecodeProxyLines(lines)
	if err != nil {
		return fmt.Errorf("decoding proxy export: %w", err)
	}
	if err := p.sink.SaveOutput("proxies.json", decoded); err != nil {
		return fmt.Errorf("saving proxy export: %w", err)
	}
	return nil
}

// routeKey is the publication history key for a route/format pair.
func routeKey(routeName string, format domain.FormatID) string {
	return routeName + ":" + string(format)
}

// artifactName derives the public filename of a built artifact.
func artifactName(routeName string, format domain.FormatID) string {
	switch format {
	case domain.FormatConfLines:
		return routeName + ".conf"
	case domain.FormatProxyText:
		return routeName + ".npvt"
	case domain.FormatSubscription:
		return routeName + ".npvtsub"
	default:
		return routeName + "." + string(format) + ".zip"
	}
}
