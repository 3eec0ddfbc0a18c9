package lib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

// BaseResolver maps a ContentID back to the FileInfo that produced it,
// typically by walking ancestor version manifests. It returns
// ErrNotFound when no version records that content.
type BaseResolver func(id types.ContentID) (*types.FileInfo, error)

// Optimizer is the per-file policy layer: it decides whether a file is
// stored whole (text), chunked (binary), or as a delta against the prior
// version of the same logical path, and it reverses those decisions on
// restore.
type Optimizer struct {
	store   ObjectStore
	chunker *Chunker
	delta   *DeltaCompressor
	hash    Hasher
	cfg     Config
}

// NewOptimizer wires the optimizer's strategies together.
func NewOptimizer(store ObjectStore, chunker *Chunker, delta *DeltaCompressor, cfg Config) *Optimizer {
	return &Optimizer{
		store:   store,
		chunker: chunker,
		delta:   delta,
		hash:    cfg.Hash,
		cfg:     cfg,
	}
}

// binarySampleSize bounds how much content IsBinary inspects.
const binarySampleSize = 8 * 1024

// IsBinary classifies a file. Extension hints win both ways; otherwise a
// null byte or a high non-text ratio in the leading sample decides.
func (o *Optimizer) IsBinary(path string, content []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if o.cfg.BinaryExtensions[ext] {
		return true
	}
	if o.cfg.TextExtensions[ext] {
		return false
	}

	sample := content
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}
	if len(sample) == 0 {
		return false
	}

	nonText := 0
	for _, b := range sample {
		if b == 0 {
			return true
		}
		if b < 0x09 || (b > 0x0d && b < 0x20) {
			nonText++
		}
	}
	return nonText*10 > len(sample)*3
}

// StoreAsset persists one file's content and returns the FileInfo to
// record in the version manifest. prior is the parent version's entry
// for the same logical path, or nil; when present and reconstructible,
// binary content is considered for delta storage.
func (o *Optimizer) StoreAsset(relPath string, content []byte, modTime time.Time, prior *types.FileInfo, resolve BaseResolver) (types.FileInfo, error) {
	info := types.FileInfo{
		Path:         relPath,
		Size:         int64(len(content)),
		ContentHash:  o.hash(content),
		ModifiedTime: modTime,
		IsBinary:     o.IsBinary(relPath, content),
	}

	if !info.IsBinary {
		if _, err := o.store.StoreFile(content); err != nil {
			return types.FileInfo{}, fmt.Errorf("failed to store %s: %w", relPath, err)
		}
		return info, nil
	}

	chunks, err := o.chunker.Split(content)
	if err != nil {
		return types.FileInfo{}, fmt.Errorf("failed to chunk %s: %w", relPath, err)
	}

	// Bytes that chunked storage would actually write: chunks already in
	// the store (from any file, any version) cost nothing again.
	var newChunkBytes int64
	for _, c := range chunks {
		if !o.store.Exists(c.ID, types.ChunkNamespace) {
			newChunkBytes += c.Size
		}
	}

	if prior != nil && resolve != nil {
		if deltaInfo, ok := o.tryDelta(info, content, newChunkBytes, prior, resolve); ok {
			return deltaInfo, nil
		}
	}

	ids := make([]types.ContentID, len(chunks))
	for i, c := range chunks {
		if _, err := o.store.StoreChunk(c.Data); err != nil {
			return types.FileInfo{}, fmt.Errorf("failed to store chunk %d of %s: %w", i, relPath, err)
		}
		ids[i] = c.ID
	}
	info.Chunks = ids
	return info, nil
}

// tryDelta attempts delta storage against the prior version. Failures to
// reconstruct the prior version fall back to chunking silently; only a
// worthwhile, successfully stored delta is reported as ok.
func (o *Optimizer) tryDelta(info types.FileInfo, content []byte, newChunkBytes int64, prior *types.FileInfo, resolve BaseResolver) (types.FileInfo, bool) {
	baseBytes, err := o.RestoreAsset(*prior, resolve)
	if err != nil {
		return types.FileInfo{}, false
	}

	delta, err := o.delta.Create(baseBytes, content)
	if err != nil {
		return types.FileInfo{}, false
	}
	if !deltaWorthwhile(int64(len(delta)), newChunkBytes) {
		return types.FileInfo{}, false
	}

	deltaID, err := o.store.StoreChunk(delta)
	if err != nil {
		return types.FileInfo{}, false
	}

	info.Chunks = []types.ContentID{deltaID}
	info.Metadata = map[string]string{
		types.MetaDelta:       "true",
		types.MetaBaseVersion: string(prior.ContentHash),
	}
	return info, true
}

// RestoreAsset reassembles the exact original bytes for a manifest
// entry: the whole-file object for text, the ordered chunk list for
// binary, or a stored delta applied to its resolved base.
func (o *Optimizer) RestoreAsset(info types.FileInfo, resolve BaseResolver) ([]byte, error) {
	var content []byte

	switch {
	case info.IsDelta():
		if len(info.Chunks) != 1 {
			return nil, fmt.Errorf("%s: delta entry carries %d chunks: %w",
				info.Path, len(info.Chunks), ErrCorruptDelta)
		}
		if resolve == nil {
			return nil, fmt.Errorf("%s: no resolver for delta base %s: %w",
				info.Path, info.BaseVersion(), ErrNotFound)
		}
		baseInfo, err := resolve(info.BaseVersion())
		if err != nil {
			return nil, fmt.Errorf("%s: delta base %s: %w", info.Path, info.BaseVersion(), err)
		}
		// Bases may themselves be deltas; recurse down the chain.
		baseBytes, err := o.RestoreAsset(*baseInfo, resolve)
		if err != nil {
			return nil, err
		}
		delta, err := o.store.RetrieveChunk(info.Chunks[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.Path, err)
		}
		content, err = o.delta.Apply(baseBytes, delta)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.Path, err)
		}

	case info.IsBinary:
		for i, id := range info.Chunks {
			chunk, err := o.store.RetrieveChunk(id)
			if err != nil {
				return nil, fmt.Errorf("%s: chunk %d: %w", info.Path, i, err)
			}
			content = append(content, chunk...)
		}

	default:
		var err error
		content, err = o.store.RetrieveFile(info.ContentHash)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.Path, err)
		}
	}

	if int64(len(content)) != info.Size {
		return nil, fmt.Errorf("%s: reconstructed %d bytes, manifest records %d: %w",
			info.Path, len(content), info.Size, ErrIntegrity)
	}
	if got := o.hash(content); got != info.ContentHash {
		return nil, fmt.Errorf("%s: reconstructed content hashed to %s: %w",
			info.Path, got, ErrIntegrity)
	}
	return content, nil
}

// RestoreAssetToFile writes a reconstructed asset to outputPath,
// creating parent directories as needed.
func (o *Optimizer) RestoreAssetToFile(info types.FileInfo, outputPath string, resolve BaseResolver) error {
	content, err := o.RestoreAsset(info, resolve)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", outputPath, err)
	}
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}
