package header

import (
	"hash/crc32"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

// StreamTrailer is the fixed 32-byte record closing a STREAM_MODE archive
//, used in place of a Trailer+TOC when random
// access was never required.
type StreamTrailer struct {
	OriginalSize int64
	StoredSize   int64
	ChunkCount   int32
	TrailerCRC32 int32
}

// Encode serializes the trailer to exactly 32 bytes. The 4 reserved bytes
// following the magic are always written as zero and are never validated
// on decode.
func (s StreamTrailer) Encode() []byte {
	w := primitive.NewWriterSize(format.StreamTrailerSize)
	w.WriteBytes([]byte(format.MagicStream))
	w.WriteBytes(make([]byte, 4)) // reserved
	w.WriteInt64(s.OriginalSize)
	w.WriteInt64(s.StoredSize)
	w.WriteInt32(s.ChunkCount)

	crc := int32(crc32.ChecksumIEEE(w.Bytes())) //nolint: gosec
	w.WriteInt32(crc)

	out := w.Bytes()
	if len(out) != format.StreamTrailerSize {
		panic("header: StreamTrailer encoded to unexpected size")
	}

	return out
}

// DecodeStreamTrailer reads a StreamTrailer from r.
func DecodeStreamTrailer(r *primitive.Reader) (StreamTrailer, error) {
	start := r.Pos()

	magic, err := r.ReadBounded("magic", len(format.MagicStream), len(format.MagicStream))
	if err != nil {
		return StreamTrailer{}, err
	}
	if string(magic) != format.MagicStream {
		return StreamTrailer{}, &errs.InvalidFormatError{Offset: start, Expected: format.MagicStream, Observed: string(magic)}
	}

	if err := r.Skip(4); err != nil { // reserved, never validated
		return StreamTrailer{}, err
	}

	var s StreamTrailer
	if s.OriginalSize, err = r.ReadInt64(); err != nil {
		return StreamTrailer{}, err
	}
	if s.StoredSize, err = r.ReadInt64(); err != nil {
		return StreamTrailer{}, err
	}
	if s.ChunkCount, err = r.ReadInt32(); err != nil {
		return StreamTrailer{}, err
	}
	if s.TrailerCRC32, err = r.ReadInt32(); err != nil {
		return StreamTrailer{}, err
	}

	return s, nil
}

// VerifyCRC32 reports whether TrailerCRC32 matches the CRC computed over
// the trailer's re-encoded bytes preceding the CRC field.
func (s StreamTrailer) VerifyCRC32() bool {
	return s.ComputedCRC32() == s.TrailerCRC32
}

// ComputedCRC32 returns the CRC-32 a correctly-written trailer would carry.
func (s StreamTrailer) ComputedCRC32() int32 {
	encoded := s.Encode()
	return int32(crc32.ChecksumIEEE(encoded[:format.StreamTrailerSize-4])) //nolint: gosec
}
