// Package artifacts persists built artifacts on the local filesystem.
// Internal copies are hash-named and deduplicated; output copies carry
// the artifact's public filename and overwrite the previous run, with a
// timestamped copy kept in an archive directory for a bounded
// retention period.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mergehub/mergebot/internal/core/ports/driven"
	"github.com/mergehub/mergebot/internal/hashing"
)

// Ensure Store implements the interface.
var _ driven.ArtifactSink = (*Store)(nil)

// Store is a filesystem-backed artifact sink.
type Store struct {
	internalDir string
	outputDir   string
	archiveDir  string
	now         func() time.Time
}

// NewStore creates an artifact store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	s := &Store{
		internalDir: filepath.Join(baseDir, "internal"),
		outputDir:   filepath.Join(baseDir, "output"),
		archiveDir:  filepath.Join(baseDir, "archive"),
		now:         time.Now,
	}
	for _, dir := range []string{s.internalDir, s.outputDir, s.archiveDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating artifact directory: %w", err)
		}
	}
	return s, nil
}

// SaveInternal stores a hash-named copy under the route's internal
// directory and returns the artifact hash. Identical bytes land on the
// same path, so re-saving an unchanged artifact is a no-op.
func (s *Store) SaveInternal(routeName string, name string, data []byte) (string, error) {
	hash := hashing.Bytes(data)

	dir := filepath.Join(s.internalDir, sanitize(routeName))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating route directory: %w", err)
	}

	target := filepath.Join(dir, hash[:16]+"_"+sanitize(name))
	if _, err := os.Stat(target); err == nil {
		return hash, nil
	}
	if err := writeAtomic(target, data); err != nil {
		return "", fmt.Errorf("saving internal artifact: %w", err)
	}
	return hash, nil
}

// SaveOutput overwrites the user-facing output file and archives a
// timestamped copy.
func (s *Store) SaveOutput(name string, data []byte) error {
	clean := sanitize(name)
	if err := writeAtomic(filepath.Join(s.outputDir, clean), data); err != nil {
		return fmt.Errorf("saving output artifact: %w", err)
	}

	stamp := s.now().UTC().Format("20060102T150405")
	archived := filepath.Join(s.archiveDir, stamp+"_"+clean)
	if err := writeAtomic(archived, data); err != nil {
		return fmt.Errorf("archiving artifact: %w", err)
	}
	return nil
}

// PruneArchive removes archive copies older than retentionDays and
// returns how many were removed.
func (s *Store) PruneArchive(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	entries, err := os.ReadDir(s.archiveDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading archive directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.archiveDir, entry.Name())); err != nil {
			return removed, fmt.Errorf("removing archived artifact: %w", err)
		}
		removed++
	}
	return removed, nil
}

// OutputDir returns the user-facing output directory.
func (s *Store) OutputDir() string {
	return s.outputDir
}

// writeAtomic writes data through a temp file and rename so readers
// never observe a partial artifact.
func writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("placing file: %w", err)
	}
	return nil
}

// sanitize strips path separators from externally supplied names.
func sanitize(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		name = "unnamed"
	}
	return name
}
