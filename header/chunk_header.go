package header

import (
	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

// ChunkHeader is the fixed 24-byte record preceding every chunk's stored
// bytes.
type ChunkHeader struct {
	ChunkIndex   int32
	OriginalSize int32
	StoredSize   int32
	Checksum     int32 // lower 32 bits of the checksum algorithm's output
	Flags        int32
}

// HasFlag reports whether the given chunk flag bit is set.
func (c ChunkHeader) HasFlag(flag int32) bool { return c.Flags&flag != 0 }

// IsLast reports whether this is the entry's final chunk.
func (c ChunkHeader) IsLast() bool { return c.HasFlag(format.ChunkFlagLast) }

// Encode serializes the header to exactly 24 bytes.
func (c ChunkHeader) Encode() []byte {
	w := primitive.NewWriterSize(format.ChunkHeaderSize)
	w.WriteBytes([]byte(format.MagicChunk))
	w.WriteInt32(c.ChunkIndex)
	w.WriteInt32(c.OriginalSize)
	w.WriteInt32(c.StoredSize)
	w.WriteInt32(c.Checksum)
	w.WriteInt32(c.Flags)

	out := w.Bytes()
	if len(out) != format.ChunkHeaderSize {
		panic("header: ChunkHeader encoded to unexpected size")
	}

	return out
}

// DecodeChunkHeader reads and validates a ChunkHeader from r: magic,
// non-negative chunk_index, and the original_size/stored_size bounds.
// The size-relationship rule keyed by flags (store-vs-compress
// vs encrypt) is enforced by the stream package, which alone knows the
// configured security settings (max_compression_ratio, max_encryption_overhead).
func DecodeChunkHeader(r *primitive.Reader) (ChunkHeader, error) {
	start := r.Pos()

	magic, err := r.ReadBounded("magic", len(format.MagicChunk), len(format.MagicChunk))
	if err != nil {
		return ChunkHeader{}, err
	}
	if string(magic) != format.MagicChunk {
		return ChunkHeader{}, &errs.InvalidFormatError{Offset: start, Expected: format.MagicChunk, Observed: string(magic)}
	}

	var c ChunkHeader
	if c.ChunkIndex, err = r.ReadInt32(); err != nil {
		return ChunkHeader{}, err
	}
	if c.ChunkIndex < 0 {
		return ChunkHeader{}, &errs.OutOfBoundsError{Field: "chunk_index", Value: int64(c.ChunkIndex), Min: 0, Max: 1 << 31}
	}
	if c.OriginalSize, err = r.ReadInt32(); err != nil {
		return ChunkHeader{}, err
	}
	if c.OriginalSize < 0 || c.OriginalSize > format.MaxChunkSize {
		return ChunkHeader{}, &errs.OutOfBoundsError{Field: "original_size", Value: int64(c.OriginalSize), Min: 0, Max: format.MaxChunkSize}
	}
	if c.StoredSize, err = r.ReadInt32(); err != nil {
		return ChunkHeader{}, err
	}
	if c.StoredSize < 0 || c.StoredSize > format.MaxChunkSize {
		return ChunkHeader{}, &errs.OutOfBoundsError{Field: "stored_size", Value: int64(c.StoredSize), Min: 0, Max: format.MaxChunkSize}
	}
	if c.Checksum, err = r.ReadInt32(); err != nil {
		return ChunkHeader{}, err
	}
	if c.Flags, err = r.ReadInt32(); err != nil {
		return ChunkHeader{}, err
	}

	return c, nil
}
