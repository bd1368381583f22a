// Package blob implements the content-addressed blob store. Objects
// are keyed by their BLAKE3 hash and sharded by hash prefix to bound
// directory fan-out. Writes go to a temporary file and are renamed
// into place, so a reader never observes a partial object and a crash
// mid-write cannot corrupt existing entries.
package blob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
	"github.com/mergehub/mergebot/internal/hashing"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// Store is a filesystem-backed content-addressed blob store.
type Store struct {
	baseDir string
}

// NewStore creates a blob store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Put stores data under its content hash. Storing bytes that already
// exist is a no-op; concurrent callers racing to store identical
// content are safe because the rename target is byte-identical by
// construction.
func (s *Store) Put(data []byte) (string, error) {
	hash := hashing.Bytes(data)
	target := s.path(hash)

	if _, err := os.Stat(target); err == nil {
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return "", fmt.Errorf("creating shard directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), hash+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp blob: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("syncing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing temp blob: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("placing blob: %w", err)
	}
	return hash, nil
}

// Get returns the bytes for a hash.
func (s *Store) Get(hash string) ([]byte, error) {
	data, err := os.ReadFile(s.path(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("blob %.12s: %w", hash, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

// Exists reports whether a blob with the given hash is stored.
func (s *Store) Exists(hash string) bool {
	_, err := os.Stat(s.path(hash))
	return err == nil
}

// Delete removes a blob. Missing blobs are not an error.
func (s *Store) Delete(hash string) error {
	err := os.Remove(s.path(hash))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

// List returns the hashes of all stored blobs.
func (s *Store) List() ([]string, error) {
	var hashes []string
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if hashing.Valid(name) {
			hashes = append(hashes, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking blob store: %w", err)
	}
	return hashes, nil
}

// path returns the sharded location for a hash.
func (s *Store) path(hash string) string {
	shard := hash
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(s.baseDir, shard, hash)
}
