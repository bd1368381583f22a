package blob

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/hashing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStore_PutAndGet(t *testing.T) {
	store := newTestStore(t)

	data := []byte("vmess://example-content")
	hash, err := store.Put(data)
	require.NoError(t, err)
	assert.Equal(t, hashing.Bytes(data), hash)
	assert.True(t, hashing.Valid(hash))

	got, err := store.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestStore_PutIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	data := []byte("same bytes")
	h1, err := store.Put(data)
	require.NoError(t, err)
	h2, err := store.Put(data)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	hashes, err := store.List()
	require.NoError(t, err)
	assert.Len(t, hashes, 1, "identical content stored once")
}

func TestStore_ConcurrentPutSameContent(t *testing.T) {
	store := newTestStore(t)
	data := []byte("raced content")

	var wg sync.WaitGroup
	hashes := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := store.Put(data)
			assert.NoError(t, err)
			hashes[i] = h
		}(i)
	}
	wg.Wait()

	for _, h := range hashes {
		assert.Equal(t, hashes[0], h)
	}

	got, err := store.Get(hashes[0])
	require.NoError(t, err)
	assert.Equal(t, data, got)

	stored, err := store.List()
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(hashing.Bytes([]byte("never stored")))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Exists(t *testing.T) {
	store := newTestStore(t)

	hash, err := store.Put([]byte("here"))
	require.NoError(t, err)

	assert.True(t, store.Exists(hash))
	assert.False(t, store.Exists(hashing.Bytes([]byte("absent"))))
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)

	hash, err := store.Put([]byte("doomed"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(hash))
	assert.False(t, store.Exists(hash))

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(hash))
}

func TestStore_ListIgnoresForeignFiles(t *testing.T) {
	store := newTestStore(t)

	h1, err := store.Put([]byte("one"))
	require.NoError(t, err)
	h2, err := store.Put([]byte("two"))
	require.NoError(t, err)

	hashes, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{h1, h2}, hashes)
}
