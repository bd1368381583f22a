// Package connectors provides implementations of the Connector
// interface for the supported source types. Each connector knows how
// to fetch content from one kind of origin (telegram, filesystem).
//
// Connectors are created per source by the Factory at the start of the
// ingest phase.
package connectors

import (
	"context"
	"fmt"

	"github.com/mergehub/mergebot/internal/adapters/driven/config/file"
	"github.com/mergehub/mergebot/internal/connectors/filesystem"
	"github.com/mergehub/mergebot/internal/connectors/telegram"
	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory builds connectors from source configuration.
type Factory struct {
	cfg *file.Config
}

// NewFactory creates a connector factory over the loaded config.
func NewFactory(cfg *file.Config) *Factory {
	return &Factory{cfg: cfg}
}

// Create returns a connector for the source.
func (f *Factory) Create(_ context.Context, source domain.Source) (driven.Connector, error) {
	sc, ok := f.cfg.Source(source.ID)
	if !ok {
		return nil, fmt.Errorf("source %q: %w", source.ID, domain.ErrNotFound)
	}

	switch source.Type {
	case "telegram":
		token := sc.Options["token"]
		if token == "" {
			token = f.cfg.Telegram.Token
		}
		return telegram.NewConnector(token, sc.Options["chat"])
	case "filesystem":
		return filesystem.NewConnector(sc.Options["path"])
	default:
		return nil, fmt.Errorf("source type %q: %w", source.Type, domain.ErrUnsupportedType)
	}
}
