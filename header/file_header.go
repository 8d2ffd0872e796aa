package header

import (
	"hash/crc32"
	"time"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

// FileHeader is the fixed 64-byte record at the start of every APACK
// archive.
type FileHeader struct {
	VersionMajor      uint16
	VersionMinor      uint16
	VersionPatch      uint16
	CompatLevel       uint16
	ModeFlags         uint8
	ChecksumAlgoID    uint8
	ChunkSize         int32
	HeaderCRC32       int32
	EntryCount        int64
	TrailerOffset     int64
	CreationTimestamp int64
}

// NewFileHeader builds a FileHeader with the current codec version, a
// creation timestamp of now, and zeroed entry_count/trailer_offset,
// the fields the writer back-patches on finalize.
func NewFileHeader(chunkSize int32, checksumAlgoID uint8, modeFlags uint8) FileHeader {
	return FileHeader{
		VersionMajor:      format.CurrentVersionMajor,
		VersionMinor:      format.CurrentVersionMinor,
		VersionPatch:      format.CurrentVersionPatch,
		CompatLevel:       format.CurrentCompatLevel,
		ModeFlags:         modeFlags,
		ChecksumAlgoID:    checksumAlgoID,
		ChunkSize:         chunkSize,
		CreationTimestamp: time.Now().UnixMilli(),
	}
}

// HasMode reports whether the given mode flag bit is set.
func (h FileHeader) HasMode(flag uint8) bool { return h.ModeFlags&flag != 0 }

// CreationTime returns CreationTimestamp as a time.Time.
func (h FileHeader) CreationTime() time.Time {
	return time.UnixMilli(h.CreationTimestamp).UTC()
}

// Encode serializes the header to exactly 64 bytes, computing and
// embedding header_crc32 over the first format.FileHeaderCRCSpan bytes.
func (h FileHeader) Encode() []byte {
	w := primitive.NewWriterSize(format.FileHeaderSize)
	w.WriteBytes([]byte(format.MagicFile))
	w.WriteUint16(h.VersionMajor)
	w.WriteUint16(h.VersionMinor)
	w.WriteUint16(h.VersionPatch)
	w.WriteUint16(h.CompatLevel)
	w.WriteUint8(h.ModeFlags)
	w.WriteUint8(h.ChecksumAlgoID)
	w.WriteInt32(h.ChunkSize)

	crc := int32(crc32.ChecksumIEEE(w.Bytes()[:format.FileHeaderCRCSpan])) //nolint: gosec
	w.WriteInt32(crc)
	w.WriteInt64(h.EntryCount)
	w.WriteInt64(h.TrailerOffset)
	w.WriteInt64(h.CreationTimestamp)
	w.WriteBytes(make([]byte, 16)) // reserved

	out := w.Bytes()
	if len(out) != format.FileHeaderSize {
		panic("header: FileHeader encoded to unexpected size")
	}

	return out
}

// DecodeFileHeader reads and validates a FileHeader from r: magic,
// version/compat gate, and chunk_size/entry_count bounds.
// header_crc32 is read but not verified here; call VerifyCRC32 for that.
func DecodeFileHeader(r *primitive.Reader) (FileHeader, error) {
	magic, err := r.ReadBounded("magic", len(format.MagicFile), len(format.MagicFile))
	if err != nil {
		return FileHeader{}, err
	}
	if string(magic) != format.MagicFile {
		return FileHeader{}, &errs.InvalidFormatError{Offset: 0, Expected: format.MagicFile, Observed: string(magic)}
	}

	var h FileHeader
	if h.VersionMajor, err = r.ReadUint16(); err != nil {
		return FileHeader{}, err
	}
	if h.VersionMinor, err = r.ReadUint16(); err != nil {
		return FileHeader{}, err
	}
	if h.VersionPatch, err = r.ReadUint16(); err != nil {
		return FileHeader{}, err
	}
	if h.CompatLevel, err = r.ReadUint16(); err != nil {
		return FileHeader{}, err
	}
	if h.CompatLevel > format.CurrentCompatLevel {
		return FileHeader{}, &errs.UnsupportedVersionError{RequiredVersion: h.CompatLevel, ReaderVersion: format.CurrentCompatLevel}
	}

	modeFlags, err := r.ReadUint8()
	if err != nil {
		return FileHeader{}, err
	}
	h.ModeFlags = modeFlags

	checksumAlgoID, err := r.ReadUint8()
	if err != nil {
		return FileHeader{}, err
	}
	h.ChecksumAlgoID = checksumAlgoID

	if h.ChunkSize, err = r.ReadInt32(); err != nil {
		return FileHeader{}, err
	}
	if h.ChunkSize < format.MinChunkSize || h.ChunkSize > format.MaxChunkSize {
		return FileHeader{}, &errs.OutOfBoundsError{Field: "chunk_size", Value: int64(h.ChunkSize), Min: format.MinChunkSize, Max: format.MaxChunkSize}
	}

	if h.HeaderCRC32, err = r.ReadInt32(); err != nil {
		return FileHeader{}, err
	}
	if h.EntryCount, err = r.ReadInt64(); err != nil {
		return FileHeader{}, err
	}
	if h.EntryCount < 0 || h.EntryCount > format.MaxEntryCount {
		return FileHeader{}, &errs.OutOfBoundsError{Field: "entry_count", Value: h.EntryCount, Min: 0, Max: format.MaxEntryCount}
	}
	if h.TrailerOffset, err = r.ReadInt64(); err != nil {
		return FileHeader{}, err
	}
	if h.CreationTimestamp, err = r.ReadInt64(); err != nil {
		return FileHeader{}, err
	}
	if err := r.Skip(16); err != nil { // reserved
		return FileHeader{}, err
	}

	return h, nil
}

// VerifyCRC32 reports whether HeaderCRC32 matches the CRC computed over
// the header's re-encoded first 20 bytes.
func (h FileHeader) VerifyCRC32() bool {
	return h.ComputedCRC32() == h.HeaderCRC32
}

// ComputedCRC32 returns the CRC-32 a correctly-written header would carry,
// for callers that need the expected value for diagnostics rather than a
// plain pass/fail (e.g. a ChecksumMismatchError's Expected field).
func (h FileHeader) ComputedCRC32() int32 {
	encoded := h.Encode()
	return int32(crc32.ChecksumIEEE(encoded[:format.FileHeaderCRCSpan])) //nolint: gosec
}
