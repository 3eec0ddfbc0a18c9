package lib

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

func newTestOptimizer(t *testing.T) (*Optimizer, *FSStore) {
	t.Helper()
	cfg := DefaultConfig()
	store, err := NewFSStore(t.TempDir(), cfg)
	require.NoError(t, err)
	delta, err := NewDeltaCompressor(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		delta.Close()
		store.Close()
	})
	return NewOptimizer(store, NewChunker(cfg), delta, cfg), store
}

func TestIsBinary(t *testing.T) {
	o, _ := newTestOptimizer(t)

	testCases := []struct {
		name     string
		path     string
		content  []byte
		isBinary bool
	}{
		{"known binary extension wins", "texture.png", []byte("plain text body"), true},
		{"known text extension wins", "notes.md", []byte{0x00, 0x01, 0x02}, false},
		{"null byte means binary", "mystery.dat", []byte("abc\x00def"), true},
		{"plain prose is text", "mystery.dat", []byte("just some readable prose\n"), false},
		{"empty file is text", "empty.dat", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.isBinary, o.IsBinary(tc.path, tc.content))
		})
	}
}

func TestStoreAssetTextPath(t *testing.T) {
	o, store := newTestOptimizer(t)

	content := []byte("# design notes\nplain text file\n")
	info, err := o.StoreAsset("docs/notes.md", content, time.Now(), nil, nil)
	require.NoError(t, err)

	assert.False(t, info.IsBinary)
	assert.Empty(t, info.Chunks)
	assert.True(t, store.Exists(info.ContentHash, types.FileNamespace))

	restored, err := o.RestoreAsset(info, nil)
	require.NoError(t, err)
	assert.Equal(t, content, restored)
}

func TestStoreAssetBinaryPath(t *testing.T) {
	o, store := newTestOptimizer(t)

	content := randomBytes(t, 150*1024)
	info, err := o.StoreAsset("assets/model.bin", content, time.Now(), nil, nil)
	require.NoError(t, err)

	assert.True(t, info.IsBinary)
	assert.NotEmpty(t, info.Chunks)
	assert.False(t, info.IsDelta())
	for _, id := range info.Chunks {
		assert.True(t, store.Exists(id, types.ChunkNamespace))
	}

	restored, err := o.RestoreAsset(info, nil)
	require.NoError(t, err)
	assert.Equal(t, content, restored)
}

func TestChunkDedupAcrossAssets(t *testing.T) {
	o, store := newTestOptimizer(t)

	content := randomBytes(t, 200*1024)
	_, err := o.StoreAsset("a.bin", content, time.Now(), nil, nil)
	require.NoError(t, err)

	before, err := store.SizeReport()
	require.NoError(t, err)

	// Identical content under another path stores nothing new.
	_, err = o.StoreAsset("copy-of-a.bin", content, time.Now(), nil, nil)
	require.NoError(t, err)

	after, err := store.SizeReport()
	require.NoError(t, err)
	assert.Equal(t, before.ChunkObjects, after.ChunkObjects)
	assert.Equal(t, before.ChunksBytes, after.ChunksBytes)
}

func TestStoreAssetDeltaPath(t *testing.T) {
	o, store := newTestOptimizer(t)

	base := randomBytes(t, 300*1024)
	priorInfo, err := o.StoreAsset("level.bin", base, time.Now(), nil, nil)
	require.NoError(t, err)

	// A localized edit: CDC keeps most chunk ids stable, but the new
	// chunks around the edit still dwarf a tiny delta.
	edited := make([]byte, len(base))
	copy(edited, base)
	copy(edited[150*1024:], []byte("patched"))

	resolve := func(id types.ContentID) (*types.FileInfo, error) {
		if id == priorInfo.ContentHash {
			return &priorInfo, nil
		}
		return nil, fmt.Errorf("content %s: %w", id, ErrNotFound)
	}

	info, err := o.StoreAsset("level.bin", edited, time.Now(), &priorInfo, resolve)
	require.NoError(t, err)

	require.True(t, info.IsDelta(), "a 7-byte edit of a 300KB asset should be stored as a delta")
	assert.Equal(t, priorInfo.ContentHash, info.BaseVersion())
	require.Len(t, info.Chunks, 1)
	assert.True(t, store.Exists(info.Chunks[0], types.ChunkNamespace))

	restored, err := o.RestoreAsset(info, resolve)
	require.NoError(t, err)
	assert.Equal(t, edited, restored)
}

func TestStoreAssetFallsBackWhenDeltaNotSmaller(t *testing.T) {
	o, _ := newTestOptimizer(t)

	base := randomBytes(t, 64*1024)
	priorInfo, err := o.StoreAsset("a.bin", base, time.Now(), nil, nil)
	require.NoError(t, err)

	resolve := func(id types.ContentID) (*types.FileInfo, error) {
		if id == priorInfo.ContentHash {
			return &priorInfo, nil
		}
		return nil, fmt.Errorf("content %s: %w", id, ErrNotFound)
	}

	// Entirely new random content: a delta cannot beat chunked storage.
	replacement := randomBytes(t, 64*1024)
	info, err := o.StoreAsset("a.bin", replacement, time.Now(), &priorInfo, resolve)
	require.NoError(t, err)

	assert.False(t, info.IsDelta(), "an unrelated rewrite must fall back to chunking")

	restored, err := o.RestoreAsset(info, resolve)
	require.NoError(t, err)
	assert.Equal(t, replacement, restored)
}

func TestRestoreAssetMissingChunk(t *testing.T) {
	o, _ := newTestOptimizer(t)

	info := types.FileInfo{
		Path:        "ghost.bin",
		Size:        10,
		ContentHash: Blake3Hex([]byte("0123456789")),
		IsBinary:    true,
		Chunks:      []types.ContentID{Blake3Hex([]byte("never stored"))},
	}

	_, err := o.RestoreAsset(info, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "ghost.bin", "errors must name the failing path")
}

func TestRestoreAssetSizeMismatch(t *testing.T) {
	o, _ := newTestOptimizer(t)

	content := []byte("actual stored bytes")
	info, err := o.StoreAsset("file.txt", content, time.Now(), nil, nil)
	require.NoError(t, err)

	// Lie about the size: reconstruction must refuse to return the bytes.
	info.Size = int64(len(content)) + 5
	_, err = o.RestoreAsset(info, nil)
	assert.ErrorIs(t, err, ErrIntegrity)
}
