package lib

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"
)

// Delta wire format, before the zstd pass:
//
//	"GVD1" | uvarint(targetLen) | targetHash[32] | ops
//
// ops is a sequence of:
//
//	0x00 | uvarint(len) | bytes          literal insert
//	0x01 | uvarint(baseOffset) | uvarint(len)   copy from base
//
// The whole payload is zstd-compressed on the way out.
var deltaMagic = []byte("GVD1")

const (
	opLiteral = 0x00
	opCopy    = 0x01
)

// DeltaCompressor produces and applies byte-level deltas between two
// versions of the same logical asset. Matching is rsync-style: base is
// indexed in fixed blocks by a weak rolling checksum, candidates are
// confirmed with a strong hash, and the target is encoded as copy ops
// over the base plus literal inserts.
type DeltaCompressor struct {
	blockSize int
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

// NewDeltaCompressor builds a compressor with the configured base block
// size and compression level.
func NewDeltaCompressor(cfg Config) (*DeltaCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(cfg.CompressionLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &DeltaCompressor{blockSize: cfg.DeltaBlockSize, enc: enc, dec: dec}, nil
}

// --- Weak rolling checksum (rsync's adler variant) ---
//
// a = sum of bytes, b = sum of running sums, both mod 2^16. The sum
// rolls in O(1) per byte, which is the whole point: hash/adler32 in the
// standard library cannot roll and would make the scan quadratic.

func weakSum(block []byte) uint32 {
	var a, b uint32
	for _, c := range block {
		a += uint32(c)
		b += a
	}
	return (a & 0xffff) | (b&0xffff)<<16
}

func weakRoll(sum uint32, out, in byte, blockSize int) uint32 {
	a := sum & 0xffff
	b := sum >> 16
	a = (a - uint32(out) + uint32(in)) & 0xffff
	b = (b - uint32(blockSize)*uint32(out) + a) & 0xffff
	return a | b<<16
}

type baseBlock struct {
	offset int
	strong [32]byte
}

// Create computes a delta such that Apply(base, delta) == target. An
// empty base degenerates to a literal copy of target; identical inputs
// degenerate to a single copy op.
func (d *DeltaCompressor) Create(base, target []byte) ([]byte, error) {
	var payload bytes.Buffer
	payload.Write(deltaMagic)
	payload.Write(binary.AppendUvarint(nil, uint64(len(target))))
	targetHash := blake3.Sum256(target)
	payload.Write(targetHash[:])

	bs := d.blockSize

	// Index base in fixed blocks. A short base has nothing to copy from.
	index := make(map[uint32][]baseBlock)
	if len(base) >= bs {
		for off := 0; off+bs <= len(base); off += bs {
			block := base[off : off+bs]
			w := weakSum(block)
			index[w] = append(index[w], baseBlock{offset: off, strong: blake3.Sum256(block)})
		}
	}

	var (
		litStart  = 0  // start of the pending literal run
		pos       = 0
		mergeOff  = -1 // base offset the pending copy run started at
		mergeLen  = 0  // accumulated length of the pending copy run
		rolling   uint32
		rollValid bool
	)

	flushLiteral := func(end int) {
		if end > litStart {
			payload.WriteByte(opLiteral)
			payload.Write(binary.AppendUvarint(nil, uint64(end-litStart)))
			payload.Write(target[litStart:end])
		}
	}
	flushCopy := func() {
		if mergeLen > 0 {
			payload.WriteByte(opCopy)
			payload.Write(binary.AppendUvarint(nil, uint64(mergeOff)))
			payload.Write(binary.AppendUvarint(nil, uint64(mergeLen)))
			mergeOff, mergeLen = -1, 0
		}
	}

	for len(index) > 0 && pos+bs <= len(target) {
		if !rollValid {
			rolling = weakSum(target[pos : pos+bs])
			rollValid = true
		}

		matched := false
		if candidates, ok := index[rolling]; ok {
			strong := blake3.Sum256(target[pos : pos+bs])
			for _, cand := range candidates {
				if cand.strong == strong {
					flushLiteral(pos)
					// Extend the previous copy when contiguous in base.
					if mergeLen > 0 && mergeOff+mergeLen == cand.offset {
						mergeLen += bs
					} else {
						flushCopy()
						mergeOff, mergeLen = cand.offset, bs
					}
					pos += bs
					litStart = pos
					rollValid = false
					matched = true
					break
				}
			}
		}
		if !matched {
			flushCopy()
			if pos+bs < len(target) {
				rolling = weakRoll(rolling, target[pos], target[pos+bs], bs)
			} else {
				rollValid = false
			}
			pos++
		}
	}
	flushCopy()
	flushLiteral(len(target))

	return d.enc.EncodeAll(payload.Bytes(), nil), nil
}

// Apply reconstructs target bytes from base and a delta produced by
// Create. Any decode failure or mismatch against the recorded length and
// hash returns an error wrapping ErrCorruptDelta.
func (d *DeltaCompressor) Apply(base, delta []byte) ([]byte, error) {
	payload, err := d.dec.DecodeAll(delta, nil)
	if err != nil {
		return nil, fmt.Errorf("delta failed to decompress: %w", ErrCorruptDelta)
	}

	buf := bytes.NewBuffer(payload)
	magic := make([]byte, len(deltaMagic))
	if _, err := buf.Read(magic); err != nil || !bytes.Equal(magic, deltaMagic) {
		return nil, fmt.Errorf("bad delta magic: %w", ErrCorruptDelta)
	}

	targetLen, err := binary.ReadUvarint(buf)
	if err != nil {
		return nil, fmt.Errorf("truncated delta header: %w", ErrCorruptDelta)
	}
	var wantHash [32]byte
	if _, err := buf.Read(wantHash[:]); err != nil {
		return nil, fmt.Errorf("truncated delta header: %w", ErrCorruptDelta)
	}

	target := make([]byte, 0, targetLen)
	for buf.Len() > 0 {
		op, err := buf.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("truncated delta op: %w", ErrCorruptDelta)
		}
		switch op {
		case opLiteral:
			n, err := binary.ReadUvarint(buf)
			if err != nil || uint64(buf.Len()) < n {
				return nil, fmt.Errorf("truncated literal op: %w", ErrCorruptDelta)
			}
			target = append(target, buf.Next(int(n))...)
		case opCopy:
			off, err := binary.ReadUvarint(buf)
			if err != nil {
				return nil, fmt.Errorf("truncated copy op: %w", ErrCorruptDelta)
			}
			n, err := binary.ReadUvarint(buf)
			if err != nil {
				return nil, fmt.Errorf("truncated copy op: %w", ErrCorruptDelta)
			}
			if off+n > uint64(len(base)) {
				return nil, fmt.Errorf("copy op past end of base (%d+%d > %d): %w",
					off, n, len(base), ErrCorruptDelta)
			}
			target = append(target, base[off:off+n]...)
		default:
			return nil, fmt.Errorf("unknown delta op 0x%02x: %w", op, ErrCorruptDelta)
		}
	}

	if uint64(len(target)) != targetLen {
		return nil, fmt.Errorf("delta reconstructed %d bytes, recorded %d: %w",
			len(target), targetLen, ErrCorruptDelta)
	}
	if blake3.Sum256(target) != wantHash {
		return nil, fmt.Errorf("delta reconstruction hash mismatch: %w", ErrCorruptDelta)
	}
	return target, nil
}

// deltaWorthwhile is the pure "use a delta only if smaller" rule: a
// delta is kept only when it is strictly smaller than the bytes chunked
// storage would newly write. Never regress storage size.
func deltaWorthwhile(deltaSize, chunkedSize int64) bool {
	return chunkedSize > 0 && deltaSize < chunkedSize
}

// Close releases compression resources.
func (d *DeltaCompressor) Close() error {
	d.dec.Close()
	return d.enc.Close()
}
