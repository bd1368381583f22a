package file

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/mergehub/mergebot/internal/core/domain"
)

// Config is the full pipeline configuration loaded from YAML.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Telegram TelegramConfig `yaml:"telegram"`
	Sources  []SourceConfig `yaml:"sources" validate:"min=1,dive"`
	Routes   []RouteConfig  `yaml:"routes" validate:"min=1,dive"`
}

// PipelineConfig tunes the run itself.
type PipelineConfig struct {
	// Workers is the ingest worker pool size.
	Workers int `yaml:"workers" validate:"omitempty,min=1,max=64"`

	// BatchSize bounds how many pending files a transform batch takes.
	BatchSize int `yaml:"batch_size" validate:"omitempty,min=1"`

	// RetentionDays bounds how long archived artifact copies are kept.
	RetentionDays int `yaml:"retention_days" validate:"omitempty,min=1"`

	// DevExports enables the plain-text and JSON developer exports of
	// decoded proxy entries.
	DevExports bool `yaml:"dev_exports"`
}

// TelegramConfig holds the default bot credential. Destinations may
// override the token per target.
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// SourceConfig declares one content origin.
type SourceConfig struct {
	ID      string            `yaml:"id" validate:"required"`
	Type    string            `yaml:"type" validate:"required,oneof=telegram filesystem"`
	Formats []string          `yaml:"formats"`
	Options map[string]string `yaml:"options"`
}

// RouteConfig declares one aggregation route.
type RouteConfig struct {
	Name         string              `yaml:"name" validate:"required"`
	FromSources  []string            `yaml:"from_sources" validate:"min=1"`
	Formats      []string            `yaml:"formats" validate:"min=1"`
	Destinations []DestinationConfig `yaml:"destinations" validate:"dive"`
}

// DestinationConfig declares one publish target of a route.
type DestinationConfig struct {
	ChatID  string `yaml:"chat_id" validate:"required"`
	Mode    string `yaml:"mode" validate:"omitempty,oneof=always on_change"`
	Caption string `yaml:"caption"`
	Token   string `yaml:"token"`
}

// Defaults applied when the YAML leaves a field unset.
const (
	DefaultWorkers       = 2
	DefaultBatchSize     = 200
	DefaultRetentionDays = 4
)

// LoadConfig reads, expands, validates, and cross-checks the pipeline
// configuration. A .env file next to the config, if present, is loaded
// first so ${VAR} references in the YAML resolve against it.
func LoadConfig(path string) (*Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	expanded := os.Expand(string(raw), func(key string) string {
		return os.Getenv(key)
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := cfg.crossCheck(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = DefaultWorkers
	}
	if c.Pipeline.BatchSize == 0 {
		c.Pipeline.BatchSize = DefaultBatchSize
	}
	if c.Pipeline.RetentionDays == 0 {
		c.Pipeline.RetentionDays = DefaultRetentionDays
	}
	for i := range c.Routes {
		for j := range c.Routes[i].Destinations {
			if c.Routes[i].Destinations[j].Mode == "" {
				c.Routes[i].Destinations[j].Mode = "on_change"
			}
		}
	}
}

// crossCheck validates references the struct tags cannot see: routes
// naming unknown sources or formats, duplicate ids, format selectors
// naming formats that do not exist.
func (c *Config) crossCheck() error {
	sourceIDs := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if sourceIDs[s.ID] {
			return fmt.Errorf("duplicate source id %q", s.ID)
		}
		sourceIDs[s.ID] = true

		for _, f := range s.Formats {
			if f == "all" {
				continue
			}
			if !domain.FormatID(f).IsKnown() {
				return fmt.Errorf("source %q selects unknown format %q", s.ID, f)
			}
		}
	}

	routeNames := make(map[string]bool, len(c.Routes))
	for _, r := range c.Routes {
		if routeNames[r.Name] {
			return fmt.Errorf("duplicate route name %q", r.Name)
		}
		routeNames[r.Name] = true

		for _, src := range r.FromSources {
			if !sourceIDs[src] {
				return fmt.Errorf("route %q references unknown source %q", r.Name, src)
			}
		}
		for _, f := range r.Formats {
			if !domain.FormatID(f).IsKnown() {
				return fmt.Errorf("route %q builds unknown format %q", r.Name, f)
			}
		}

		for _, d := range r.Destinations {
			if d.Token == "" && c.Telegram.Token == "" {
				return fmt.Errorf("route %q destination %q has no token and no default telegram token is set",
					r.Name, d.ChatID)
			}
		}
	}

	return nil
}

// Source returns the config entry for a source id.
func (c *Config) Source(id string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// Selector returns the format selector of a source.
func (s SourceConfig) Selector() domain.SourceSelector {
	if len(s.Formats) == 0 {
		return domain.SourceSelector{}
	}
	formats := make([]domain.FormatID, 0, len(s.Formats))
	for _, f := range s.Formats {
		formats = append(formats, domain.FormatID(strings.ToLower(f)))
	}
	return domain.SourceSelector{IncludeFormats: formats}
}

// DomainRoutes converts route configs into domain routes.
func (c *Config) DomainRoutes() []domain.Route {
	routes := make([]domain.Route, 0, len(c.Routes))
	for _, r := range c.Routes {
		formats := make([]domain.FormatID, 0, len(r.Formats))
		for _, f := range r.Formats {
			formats = append(formats, domain.FormatID(f))
		}
		dests := make([]domain.Destination, 0, len(r.Destinations))
		for _, d := range r.Destinations {
			token := d.Token
			if token == "" {
				token = c.Telegram.Token
			}
			dests = append(dests, domain.Destination{
				ChatID:          d.ChatID,
				Mode:            d.Mode,
				CaptionTemplate: d.Caption,
				Token:           token,
			})
		}
		routes = append(routes, domain.Route{
			Name:         r.Name,
			FromSources:  r.FromSources,
			Formats:      formats,
			Destinations: dests,
		})
	}
	return routes
}
