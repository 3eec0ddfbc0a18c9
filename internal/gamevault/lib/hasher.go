// Package lib contains the core, reusable services of the gamevault
// backup engine: hashing, the object store, chunking, delta compression,
// the asset optimizer, version tracking, and the engine that ties them
// together.
package lib

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"lukechampine.com/blake3"

	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

// Hasher computes the strong content hash used as object identity. It is
// injected into the store and optimizer so the algorithm is a
// configuration decision, not a hard-coded call. The rolling hash used
// for chunk boundary detection is separate and never persisted.
type Hasher func(data []byte) types.ContentID

// Blake3Hex is the default Hasher: BLAKE3-256, lowercase hex.
func Blake3Hex(data []byte) types.ContentID {
	sum := blake3.Sum256(data)
	return types.ContentID(hex.EncodeToString(sum[:]))
}

// SHA256Hex is an alternate Hasher for stores that prefer SHA-256.
func SHA256Hex(data []byte) types.ContentID {
	sum := sha256.Sum256(data)
	return types.ContentID(hex.EncodeToString(sum[:]))
}

// HashFile computes the BLAKE3-256 hash of a file's contents by streaming
// from disk, avoiding loading the whole file into memory.
func HashFile(filePath string) (types.ContentID, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := blake3.New(32, nil)
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return types.ContentID(hex.EncodeToString(hasher.Sum(nil))), nil
}
