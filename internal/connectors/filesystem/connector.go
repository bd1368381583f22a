// Package filesystem fetches content from a local directory tree. It
// exists for drop-folder setups and for exercising the pipeline
// without network access; a modified file is re-ingested because its
// external id covers mtime and size.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// MaxFileSize bounds how large a file the connector will read.
const MaxFileSize = 20 << 20

// cursor tracks the last completed scan.
type cursor struct {
	Version    int       `json:"v"`
	LastScanAt time.Time `json:"last_scan_at,omitempty"`
}

// Connector yields files under a root directory whose modification
// time falls inside the fetch window.
type Connector struct {
	root   string
	cursor cursor
}

// NewConnector creates a connector rooted at dir.
func NewConnector(dir string) (*Connector, error) {
	if dir == "" {
		return nil, fmt.Errorf("filesystem connector: %w: missing path", domain.ErrInvalidInput)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("filesystem connector: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filesystem connector: %w: %s is not a directory", domain.ErrInvalidInput, dir)
	}
	return &Connector{root: dir, cursor: cursor{Version: 1}}, nil
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// Fetch walks the root and yields files modified since the cursor's
// last scan, or within the file lookback on first runs.
func (c *Connector) Fetch(ctx context.Context, state []byte, window domain.FetchWindow) (<-chan driven.FetchItem, <-chan error) {
	items := make(chan driven.FetchItem)
	errs := make(chan error, 1)

	if len(state) > 0 {
		// Invalid cursors degrade to a full rescan.
		_ = json.Unmarshal(state, &c.cursor)
	}

	cutoff := c.cursor.LastScanAt
	if window.FirstRun && window.FileLookback > 0 {
		cutoff = time.Now().UTC().Add(-window.FileLookback)
	}
	scanStart := time.Now().UTC()

	go func() {
		defer close(items)
		defer close(errs)

		err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() != "." && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > MaxFileSize {
				return nil
			}
			if !cutoff.IsZero() && info.ModTime().Before(cutoff) {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(c.root, path)
			if err != nil {
				rel = path
			}

			item := driven.FetchItem{
				ExternalID: externalID(rel, info),
				Filename:   d.Name(),
				Content:    content,
				ObservedAt: info.ModTime().UTC(),
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case items <- item:
				return nil
			}
		})
		if err != nil {
			errs <- fmt.Errorf("scanning %s: %w", c.root, err)
			return
		}
		c.cursor.LastScanAt = scanStart
	}()

	return items, errs
}

// State returns the cursor blob to persist.
func (c *Connector) State() []byte {
	data, err := json.Marshal(c.cursor)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// Close releases resources.
func (c *Connector) Close() error {
	return nil
}

// externalID keys a file by path, mtime, and size so edits re-ingest.
func externalID(rel string, info fs.FileInfo) string {
	return rel + ":" + strconv.FormatInt(info.ModTime().Unix(), 10) + ":" + strconv.FormatInt(info.Size(), 10)
}
