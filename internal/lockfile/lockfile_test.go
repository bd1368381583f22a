package lockfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)

	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Releasing twice is not an error.
	assert.NoError(t, lock.Release())
}

func TestAcquire_HeldLockFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	defer lock.Release()

	_, err = Acquire(path)
	require.Error(t, err)
	assert.True(t, IsLocked(err))
}

func TestAcquire_ReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	again, err := Acquire(path)
	require.NoError(t, err)
	assert.NoError(t, again.Release())
}

func TestAcquire_StaleDeadProcessLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	// A lock naming a pid that cannot exist is stale immediately.
	require.NoError(t, os.WriteFile(path, []byte("99999999\n"), 0o600))

	lock, err := Acquire(path)
	require.NoError(t, err)
	assert.NoError(t, lock.Release())
}

func TestAcquire_StaleOldLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	// Own pid, so liveness says held, but the file is older than the
	// staleness bound.
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o600))
	past := time.Now().Add(-staleAfter - time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))

	lock, err := Acquire(path)
	require.NoError(t, err)
	assert.NoError(t, lock.Release())
}

func TestAcquire_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "run.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	assert.NoError(t, lock.Release())
}
