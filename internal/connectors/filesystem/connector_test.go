package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
)

func collect(t *testing.T, c *Connector, state []byte, window domain.FetchWindow) []driven.FetchItem {
	t.Helper()
	items, errs := c.Fetch(context.Background(), state, window)

	var out []driven.FetchItem
	for items != nil || errs != nil {
		select {
		case item, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			out = append(out, item)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			require.NoError(t, err)
		}
	}
	return out
}

func TestNewConnector_Validation(t *testing.T) {
	_, err := NewConnector("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewConnector(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestConnector_FetchYieldsFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.npvt"), []byte("vmess://a"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.conf"), []byte("line"), 0o600))

	c, err := NewConnector(dir)
	require.NoError(t, err)
	defer c.Close()

	items := collect(t, c, nil, domain.FetchWindow{})
	require.Len(t, items, 2)

	names := []string{items[0].Filename, items[1].Filename}
	assert.ElementsMatch(t, []string{"a.npvt", "b.conf"}, names)
	for _, item := range items {
		assert.NotEmpty(t, item.ExternalID)
		assert.NotEmpty(t, item.Content)
	}
}

func TestConnector_FirstRunWindowFiltersOldFiles(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.conf")
	require.NoError(t, os.WriteFile(oldFile, []byte("stale"), 0o600))
	past := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, past, past))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.conf"), []byte("fresh"), 0o600))

	c, err := NewConnector(dir)
	require.NoError(t, err)
	defer c.Close()

	window := domain.FetchWindowDefaults(true)
	items := collect(t, c, nil, window)
	require.Len(t, items, 1)
	assert.Equal(t, "new.conf", items[0].Filename)
}

func TestConnector_CursorSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.conf"), []byte("x"), 0o600))

	c, err := NewConnector(dir)
	require.NoError(t, err)
	defer c.Close()

	first := collect(t, c, nil, domain.FetchWindow{})
	require.Len(t, first, 1)
	state := c.State()
	require.NotEmpty(t, state)

	// Second scan with the persisted cursor sees nothing new.
	c2, err := NewConnector(dir)
	require.NoError(t, err)
	defer c2.Close()

	second := collect(t, c2, state, domain.FetchWindow{})
	assert.Empty(t, second)
}

func TestConnector_ModifiedFileGetsNewExternalID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.conf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	c, err := NewConnector(dir)
	require.NoError(t, err)
	first := collect(t, c, nil, domain.FetchWindow{})
	require.Len(t, first, 1)

	// Rewrite with different size and a bumped mtime.
	require.NoError(t, os.WriteFile(path, []byte("v2 longer"), 0o600))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	c2, err := NewConnector(dir)
	require.NoError(t, err)
	second := collect(t, c2, nil, domain.FetchWindow{})
	require.Len(t, second, 1)

	assert.NotEqual(t, first[0].ExternalID, second[0].ExternalID,
		"an edited file is a new item")
}

func TestConnector_SkipsHiddenDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.conf"), []byte("y"), 0o600))

	c, err := NewConnector(dir)
	require.NoError(t, err)

	items := collect(t, c, nil, domain.FetchWindow{})
	require.Len(t, items, 1)
	assert.Equal(t, "real.conf", items[0].Filename)
}
