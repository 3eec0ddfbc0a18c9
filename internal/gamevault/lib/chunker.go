package lib

import (
	"bytes"
	"io"

	"github.com/aclements/go-rabin/rabin"

	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

// Rabin fingerprint parameters. The polynomial and window are fixed;
// chunk size bounds come from Config.
const (
	// A 64-bit irreducible polynomial over GF(2).
	rabinPoly = rabin.Poly64
	// Rolling hash window size in bytes.
	rabinWindow = 64
)

// rabinTable is precomputed once; building it is expensive.
var rabinTable = rabin.NewTable(rabinPoly, rabinWindow)

// Chunker splits byte buffers into variable-length chunks using Rabin
// fingerprinting. Boundaries depend only on local content, so a small
// edit perturbs only the chunks touching it and identical regions
// collapse to the same chunk ids across files and versions.
type Chunker struct {
	min  int
	avg  int
	max  int
	hash Hasher
}

// NewChunker builds a chunker from the configured size bounds and hash
// strategy.
func NewChunker(cfg Config) *Chunker {
	return &Chunker{
		min:  cfg.MinChunkSize,
		avg:  cfg.AvgChunkSize,
		max:  cfg.MaxChunkSize,
		hash: cfg.Hash,
	}
}

// Split chunks content into an ordered sequence covering the whole buffer
// exactly once, no gaps, no overlaps. Identical input always yields
// identical boundaries. An empty buffer yields no chunks.
func (c *Chunker) Split(content []byte) ([]types.Chunk, error) {
	if len(content) == 0 {
		return []types.Chunk{}, nil
	}

	chunker := rabin.NewChunker(rabinTable, bytes.NewReader(content), c.min, c.avg, c.max)

	var chunks []types.Chunk
	var offset int64
	for {
		length, err := chunker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		// Slice the original buffer instead of copying per chunk.
		data := content[offset : offset+int64(length)]
		offset += int64(length)

		chunks = append(chunks, types.Chunk{
			ID:   c.hash(data),
			Size: int64(len(data)),
			Data: data,
		})
	}

	// Inputs smaller than the minimum chunk size may produce no chunks;
	// the whole buffer becomes a single chunk.
	if len(chunks) == 0 {
		chunks = append(chunks, types.Chunk{
			ID:   c.hash(content),
			Size: int64(len(content)),
			Data: content,
		})
	}

	return chunks, nil
}
