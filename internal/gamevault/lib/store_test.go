package lib

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir(), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFSStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	t.Run("file namespace", func(t *testing.T) {
		content := []byte("whole file content")
		id, err := store.StoreFile(content)
		require.NoError(t, err)

		got, err := store.RetrieveFile(id)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("chunk namespace", func(t *testing.T) {
		content := randomBytes(t, 12*1024)
		id, err := store.StoreChunk(content)
		require.NoError(t, err)

		got, err := store.RetrieveChunk(id)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(content, got))
	})

	t.Run("namespaces are separate", func(t *testing.T) {
		content := []byte("stored only as a file")
		id, err := store.StoreFile(content)
		require.NoError(t, err)

		assert.True(t, store.Exists(id, types.FileNamespace))
		assert.False(t, store.Exists(id, types.ChunkNamespace))

		_, err = store.RetrieveChunk(id)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFSStoreNotFound(t *testing.T) {
	store := newTestStore(t)

	missing := Blake3Hex([]byte("never stored"))
	_, err := store.RetrieveFile(missing)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.False(t, store.Exists(missing, types.FileNamespace))
}

func TestFSStoreDedup(t *testing.T) {
	store := newTestStore(t)
	content := randomBytes(t, 32*1024)

	first, err := store.StoreFile(content)
	require.NoError(t, err)

	statsAfterFirst, err := store.SizeReport()
	require.NoError(t, err)

	// Tamper with the stored object's bytes on disk. If the second
	// store performed a physical write, the tampering would be undone.
	objPath := store.objectPath(first, types.FileNamespace)
	require.NoError(t, os.WriteFile(objPath, []byte("tampered"), 0644))

	second, err := store.StoreFile(content)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same content must yield the same id")

	onDisk, err := os.ReadFile(objPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("tampered"), onDisk, "dedup hit must not rewrite the object")

	statsAfterSecond, err := store.SizeReport()
	require.NoError(t, err)
	assert.Equal(t, statsAfterFirst.FileObjects, statsAfterSecond.FileObjects)
}

func TestFSStoreSharding(t *testing.T) {
	store := newTestStore(t)

	content := []byte("sharded object")
	id, err := store.StoreFile(content)
	require.NoError(t, err)

	// files/<first-2-hex>/<id>
	expected := filepath.Join(GetFilesDir(store.baseDir), string(id)[:2], string(id))
	_, statErr := os.Stat(expected)
	assert.NoError(t, statErr, "object should live under its 2-hex shard directory")
}

func TestFSStoreCompressedAtRest(t *testing.T) {
	store := newTestStore(t)

	// Highly repetitive content compresses well.
	content := bytes.Repeat([]byte("gamevault "), 10*1024)
	id, err := store.StoreFile(content)
	require.NoError(t, err)

	info, err := os.Stat(store.objectPath(id, types.FileNamespace))
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(content))/4,
		"repetitive content should shrink substantially at rest")

	got, err := store.RetrieveFile(id)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFSStoreIntegrityCheck(t *testing.T) {
	store := newTestStore(t)

	content := []byte("content that will be corrupted on disk")
	id, err := store.StoreFile(content)
	require.NoError(t, err)

	// Replace the object with a valid zstd frame of different content.
	other := store.enc.EncodeAll([]byte("imposter bytes"), nil)
	require.NoError(t, os.WriteFile(store.objectPath(id, types.FileNamespace), other, 0644))

	_, err = store.RetrieveFile(id)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestFSStoreSizeReport(t *testing.T) {
	store := newTestStore(t)

	empty, err := store.SizeReport()
	require.NoError(t, err)
	assert.Zero(t, empty.TotalBytes)
	assert.Zero(t, empty.FileObjects+empty.ChunkObjects)

	_, err = store.StoreFile(randomBytes(t, 4*1024))
	require.NoError(t, err)
	_, err = store.StoreChunk(randomBytes(t, 4*1024))
	require.NoError(t, err)
	_, err = store.StoreChunk(randomBytes(t, 4*1024))
	require.NoError(t, err)

	stats, err := store.SizeReport()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileObjects)
	assert.Equal(t, 2, stats.ChunkObjects)
	assert.Positive(t, stats.FilesBytes)
	assert.Positive(t, stats.ChunksBytes)
	assert.Equal(t, stats.FilesBytes+stats.ChunksBytes, stats.TotalBytes)
}

func TestErrorsAreDistinguishable(t *testing.T) {
	assert.False(t, errors.Is(ErrNotFound, ErrIntegrity))
	assert.False(t, errors.Is(ErrCorruptDelta, ErrIntegrity))
	assert.False(t, errors.Is(ErrAlreadyExists, ErrNotFound))
}
