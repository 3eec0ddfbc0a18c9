package lib

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	content := make([]byte, n)
	if _, err := rand.Read(content); err != nil {
		t.Fatalf("failed to generate random content: %v", err)
	}
	return content
}

func TestChunkerSplit(t *testing.T) {
	chunker := NewChunker(DefaultConfig())

	t.Run("covers the buffer exactly once", func(t *testing.T) {
		content := randomBytes(t, 200*1024)

		chunks, err := chunker.Split(content)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		if len(chunks) <= 1 {
			t.Errorf("expected multiple chunks for 200KB, got %d", len(chunks))
		}

		var reconstructed []byte
		for _, c := range chunks {
			if int64(len(c.Data)) != c.Size {
				t.Errorf("chunk size %d does not match data length %d", c.Size, len(c.Data))
			}
			reconstructed = append(reconstructed, c.Data...)
		}
		if !bytes.Equal(content, reconstructed) {
			t.Error("concatenated chunks do not reproduce the input")
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		content := randomBytes(t, 100*1024)

		first, err := chunker.Split(content)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		second, err := chunker.Split(content)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		if len(first) != len(second) {
			t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Errorf("chunk %d id differs between runs", i)
			}
		}
	})

	t.Run("buffer below min chunk size becomes one chunk", func(t *testing.T) {
		content := []byte("too small to split")
		chunks, err := chunker.Split(content)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		if len(chunks) != 1 {
			t.Fatalf("expected 1 chunk, got %d", len(chunks))
		}
		if !bytes.Equal(chunks[0].Data, content) {
			t.Error("single chunk does not match input")
		}
	})

	t.Run("empty buffer yields no chunks", func(t *testing.T) {
		chunks, err := chunker.Split(nil)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		if len(chunks) != 0 {
			t.Errorf("expected 0 chunks, got %d", len(chunks))
		}
	})
}

// TestChunkBoundaryStability is the property chunk-level dedup depends
// on: a small localized edit must only disturb the chunks around it.
func TestChunkBoundaryStability(t *testing.T) {
	chunker := NewChunker(DefaultConfig())

	original := randomBytes(t, 256*1024)
	edited := make([]byte, len(original))
	copy(edited, original)
	// Flip a short run near the middle.
	for i := 128 * 1024; i < 128*1024+16; i++ {
		edited[i] ^= 0xff
	}

	chunksA, err := chunker.Split(original)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	chunksB, err := chunker.Split(edited)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	idsA := make(map[types.ContentID]bool, len(chunksA))
	for _, c := range chunksA {
		idsA[c.ID] = true
	}
	shared := 0
	for _, c := range chunksB {
		if idsA[c.ID] {
			shared++
		}
	}

	if shared == 0 {
		t.Fatal("no chunks shared after a 16-byte edit; boundaries are not content-defined")
	}
	// The edit touches at most a few chunks; everything else must be reused.
	if unshared := len(chunksB) - shared; unshared > 4 {
		t.Errorf("edit disturbed %d of %d chunks, expected at most 4", unshared, len(chunksB))
	}
}
