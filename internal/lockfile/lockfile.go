// Package lockfile provides a cross-process advisory run lock. One
// pipeline run holds the lock for its whole duration; a second process
// starting while the lock is held fails fast instead of racing the
// state database.
package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Lock is an exclusive filesystem lock.
type Lock struct {
	path string
}

// staleAfter bounds how long a lock left behind by a crashed process
// blocks new runs.
const staleAfter = 6 * time.Hour

// Acquire takes the lock at path, creating parent directories as
// needed. It fails when another live process holds the lock.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}
		if !stale(path) {
			return nil, fmt.Errorf("lock %s held by another run: %w", path, errLocked)
		}
		// Stale lock from a dead process; remove and retry once.
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("removing stale lock: %w", err)
		}
	}
	return nil, fmt.Errorf("lock %s: %w", path, errLocked)
}

var errLocked = errors.New("already locked")

// IsLocked reports whether err means the lock was held.
func IsLocked(err error) bool {
	return errors.Is(err, errLocked)
}

// Release removes the lock file. Releasing twice is not an error.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// stale reports whether the lock at path belongs to a process that no
// longer exists, or is older than the staleness bound.
func stale(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	if time.Since(info.ModTime()) > staleAfter {
		return true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(firstLine(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	return !processAlive(pid)
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			return s[:i]
		}
	}
	return s
}
