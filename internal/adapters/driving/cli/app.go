package cli

import (
	"fmt"

	"github.com/mergehub/mergebot/internal/adapters/driven/config/file"
	"github.com/mergehub/mergebot/internal/adapters/driven/publisher/telegram"
	"github.com/mergehub/mergebot/internal/adapters/driven/storage/artifacts"
	"github.com/mergehub/mergebot/internal/adapters/driven/storage/blob"
	"github.com/mergehub/mergebot/internal/adapters/driven/storage/sqlite"
	"github.com/mergehub/mergebot/internal/connectors"
	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/services"
	"github.com/mergehub/mergebot/internal/formats"
)

// app bundles everything a command needs, built fresh per invocation.
type app struct {
	cfg      *file.Config
	store    *sqlite.Store
	pipeline *services.Pipeline
	dataDir  string
}

func (a *app) Close() error {
	return a.store.Close()
}

// buildApp loads configuration and assembles the pipeline with its
// adapters.
func buildApp() (*app, error) {
	cfg, err := file.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}

	dataDir := flagDataDir
	if dataDir == "" {
		settings, err := file.NewSettingsStore("")
		if err == nil {
			dataDir = settings.GetString("data.dir")
		}
	}
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	blobs, err := blob.NewStore(dataDir + "/blobs")
	if err != nil {
		store.Close()
		return nil, err
	}
	sink, err := artifacts.NewStore(dataDir + "/artifacts")
	if err != nil {
		store.Close()
		return nil, err
	}

	plans := make([]services.SourcePlan, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		plans = append(plans, services.SourcePlan{
			Source:   domain.Source{ID: sc.ID, Type: sc.Type},
			Selector: sc.Selector(),
		})
	}

	pipeline := services.NewPipeline(
		store.SourceStore(),
		store.FileStore(),
		store.RecordStore(),
		store.PublishedStore(),
		blobs,
		connectors.NewFactory(cfg),
		formats.NewDefaultRegistry(),
		telegram.NewPublisher(),
		sink,
		plans,
		cfg.DomainRoutes(),
		services.Options{
			Workers:       cfg.Pipeline.Workers,
			BatchSize:     cfg.Pipeline.BatchSize,
			RetentionDays: cfg.Pipeline.RetentionDays,
			DevExports:    cfg.Pipeline.DevExports,
		},
	)

	return &app{
		cfg:      cfg,
		store:    store,
		pipeline: pipeline,
		dataDir:  dataDir,
	}, nil
}
