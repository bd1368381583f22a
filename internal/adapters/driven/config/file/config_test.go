package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergehub/mergebot/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mergebot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
pipeline:
  workers: 4
  dev_exports: true
telegram:
  token: "123:abc"
sources:
  - id: chan_a
    type: telegram
    formats: [npvt, conf_lines]
    options:
      chat: "@somechannel"
  - id: drops
    type: filesystem
    options:
      path: /tmp/drops
routes:
  - name: main
    from_sources: [chan_a, drops]
    formats: [npvt]
    destinations:
      - chat_id: "@out"
        mode: on_change
        caption: "{name}: {count} entries"
`

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, DefaultBatchSize, cfg.Pipeline.BatchSize, "unset fields take defaults")
	assert.Equal(t, DefaultRetentionDays, cfg.Pipeline.RetentionDays)
	assert.True(t, cfg.Pipeline.DevExports)

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "telegram", cfg.Sources[0].Type)
	assert.Equal(t, "@somechannel", cfg.Sources[0].Options["chat"])

	require.Len(t, cfg.Routes, 1)
	assert.Equal(t, "on_change", cfg.Routes[0].Destinations[0].Mode)
}

func TestLoadConfig_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "999:secret")
	path := writeConfig(t, `
telegram:
  token: "${TEST_BOT_TOKEN}"
sources:
  - id: s1
    type: filesystem
routes:
  - name: r1
    from_sources: [s1]
    formats: [conf_lines]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "999:secret", cfg.Telegram.Token)
}

func TestLoadConfig_UnknownSourceInRoute(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "t"
sources:
  - id: s1
    type: filesystem
routes:
  - name: r1
    from_sources: [missing]
    formats: [npvt]
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestLoadConfig_UnknownFormat(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "t"
sources:
  - id: s1
    type: filesystem
routes:
  - name: r1
    from_sources: [s1]
    formats: [floppy]
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestLoadConfig_DuplicateSourceID(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "t"
sources:
  - id: s1
    type: filesystem
  - id: s1
    type: telegram
routes:
  - name: r1
    from_sources: [s1]
    formats: [npvt]
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate source id")
}

func TestLoadConfig_MissingToken(t *testing.T) {
	path := writeConfig(t, `
sources:
  - id: s1
    type: filesystem
routes:
  - name: r1
    from_sources: [s1]
    formats: [npvt]
    destinations:
      - chat_id: "@out"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
}

func TestLoadConfig_BadSourceType(t *testing.T) {
	path := writeConfig(t, `
sources:
  - id: s1
    type: carrier-pigeon
routes:
  - name: r1
    from_sources: [s1]
    formats: [npvt]
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSourceConfig_Selector(t *testing.T) {
	sc := SourceConfig{Formats: []string{"NPVT", "conf_lines"}}
	sel := sc.Selector()
	assert.True(t, sel.Allows(domain.FormatProxyText))
	assert.True(t, sel.Allows(domain.FormatConfLines))
	assert.False(t, sel.Allows(domain.FormatOVPN))

	empty := SourceConfig{}
	assert.True(t, empty.Selector().Allows(domain.FormatOVPN))
}

func TestConfig_DomainRoutes(t *testing.T) {
	path := writeConfig(t, validConfig)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	routes := cfg.DomainRoutes()
	require.Len(t, routes, 1)
	assert.Equal(t, "main", routes[0].Name)
	assert.Equal(t, []domain.FormatID{domain.FormatProxyText}, routes[0].Formats)
	require.Len(t, routes[0].Destinations, 1)
	assert.Equal(t, "123:abc", routes[0].Destinations[0].Token,
		"destination without its own token inherits the default")
}
