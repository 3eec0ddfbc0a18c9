package lib

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

// ObjectStore is the narrow capability contract for durable
// content-addressed storage. Whole files and sub-file chunks live in
// separate namespaces because chunks are smaller and far more numerous.
type ObjectStore interface {
	// StoreFile persists data in the file namespace and returns its id.
	// If an object with that id already exists, no write happens.
	StoreFile(data []byte) (types.ContentID, error)

	// RetrieveFile returns the exact original bytes for id, or an error
	// wrapping ErrNotFound.
	RetrieveFile(id types.ContentID) ([]byte, error)

	// StoreChunk and RetrieveChunk are the same contract in the chunk
	// namespace.
	StoreChunk(data []byte) (types.ContentID, error)
	RetrieveChunk(id types.ContentID) ([]byte, error)

	// Exists reports whether an object is already stored. It never
	// returns an error for a missing object; absence is a normal
	// "not yet stored" signal.
	Exists(id types.ContentID, ns types.Namespace) bool

	// SizeReport sums on-disk compressed sizes per namespace.
	SizeReport() (types.StorageStats, error)
}

// FSStore is the filesystem ObjectStore. Objects are zstd-compressed and
// sharded by the first two hex characters of their id to bound
// per-directory fan-out. Writes go to a temp file first and are renamed
// into place, so a crash mid-write never leaves a corrupt object visible
// under its final name.
type FSStore struct {
	baseDir string
	hash    Hasher
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

// NewFSStore opens (creating if needed) the object store under the
// project's vault directory.
func NewFSStore(baseDir string, cfg Config) (*FSStore, error) {
	if _, err := EnsureVaultDirs(baseDir); err != nil {
		return nil, fmt.Errorf("failed to create vault directories: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(cfg.CompressionLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
		hash:    cfg.Hash,
		enc:     enc,
		dec:     dec,
	}, nil
}

// objectPath returns the sharded on-disk path for an id.
func (s *FSStore) objectPath(id types.ContentID, ns types.Namespace) string {
	return filepath.Join(GetVaultDir(s.baseDir), string(ns), string(id)[:2], string(id))
}

func (s *FSStore) store(data []byte, ns types.Namespace) (types.ContentID, error) {
	id := s.hash(data)
	path := s.objectPath(id, ns)

	// Dedup: identical content is already on disk under this id.
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create shard directory for %s: %w", id, err)
	}

	compressed := s.enc.EncodeAll(data, nil)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, compressed, 0644); err != nil {
		return "", fmt.Errorf("failed to write object %s: %w", id, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize object %s: %w", id, err)
	}
	return id, nil
}

func (s *FSStore) retrieve(id types.ContentID, ns types.Namespace) ([]byte, error) {
	if len(id) < 3 {
		return nil, fmt.Errorf("invalid object id %q: %w", id, ErrNotFound)
	}
	path := s.objectPath(id, ns)

	compressed, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s (%s): %w", id, ns, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", id, err)
	}

	data, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("object %s failed to decompress: %w", id, ErrIntegrity)
	}

	// Content addressing makes the check cheap: re-hash and compare.
	if got := s.hash(data); got != id {
		return nil, fmt.Errorf("object %s hashed to %s after read: %w", id, got, ErrIntegrity)
	}
	return data, nil
}

// StoreFile implements ObjectStore.
func (s *FSStore) StoreFile(data []byte) (types.ContentID, error) {
	return s.store(data, types.FileNamespace)
}

// RetrieveFile implements ObjectStore.
func (s *FSStore) RetrieveFile(id types.ContentID) ([]byte, error) {
	return s.retrieve(id, types.FileNamespace)
}

// StoreChunk implements ObjectStore.
func (s *FSStore) StoreChunk(data []byte) (types.ContentID, error) {
	return s.store(data, types.ChunkNamespace)
}

// RetrieveChunk implements ObjectStore.
func (s *FSStore) RetrieveChunk(id types.ContentID) ([]byte, error) {
	return s.retrieve(id, types.ChunkNamespace)
}

// Exists implements ObjectStore. Any stat failure is treated as "not
// stored"; a real IO problem will surface on the write that follows.
func (s *FSStore) Exists(id types.ContentID, ns types.Namespace) bool {
	if len(id) < 3 {
		return false
	}
	_, err := os.Stat(s.objectPath(id, ns))
	return err == nil
}

// SizeReport implements ObjectStore.
func (s *FSStore) SizeReport() (types.StorageStats, error) {
	var stats types.StorageStats

	sum := func(dir string) (int64, int, error) {
		var bytes int64
		var count int
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.Type().IsRegular() {
				info, err := d.Info()
				if err != nil {
					return err
				}
				bytes += info.Size()
				count++
			}
			return nil
		})
		return bytes, count, err
	}

	var err error
	stats.FilesBytes, stats.FileObjects, err = sum(GetFilesDir(s.baseDir))
	if err != nil {
		return types.StorageStats{}, fmt.Errorf("failed to size file namespace: %w", err)
	}
	stats.ChunksBytes, stats.ChunkObjects, err = sum(GetChunksDir(s.baseDir))
	if err != nil {
		return types.StorageStats{}, fmt.Errorf("failed to size chunk namespace: %w", err)
	}
	stats.TotalBytes = stats.FilesBytes + stats.ChunksBytes
	return stats, nil
}

// Close releases the store's compression resources.
func (s *FSStore) Close() error {
	s.dec.Close()
	return s.enc.Close()
}
