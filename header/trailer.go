package header

import (
	"hash/crc32"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

// Trailer is the archive's random-access index: a
// 64-byte fixed header followed by entry_count TocEntry records. Present
// iff file_header.trailer_offset points at one, i.e. RANDOM_ACCESS mode.
type Trailer struct {
	Version           int32
	TocOffset         int64 // relative to trailer start; typically 64
	TocSize           int64 // = entry_count * 40
	EntryCount        int64
	TotalOriginalSize int64
	TotalStoredSize   int64
	TocCRC32          int32
	TrailerCRC32      int32
	FileSize          int64
	Entries           []TocEntry
}

// NewTrailer builds a Trailer from its entries, computing toc_offset,
// toc_size and both CRCs.
func NewTrailer(version int32, totalOriginalSize, totalStoredSize, fileSize int64, entries []TocEntry) Trailer {
	t := Trailer{
		Version:           version,
		TocOffset:         format.TrailerHeaderSize,
		TocSize:           int64(len(entries)) * format.TocEntrySize,
		EntryCount:        int64(len(entries)),
		TotalOriginalSize: totalOriginalSize,
		TotalStoredSize:   totalStoredSize,
		FileSize:          fileSize,
		Entries:           entries,
	}
	t.TocCRC32 = int32(crc32.ChecksumIEEE(t.tocBytes())) //nolint: gosec
	t.TrailerCRC32 = int32(crc32.ChecksumIEEE(t.headerBytes(0)))

	return t
}

func (t Trailer) tocBytes() []byte {
	w := primitive.NewWriterSize(len(t.Entries) * format.TocEntrySize)
	for _, e := range t.Entries {
		w.WriteBytes(e.Encode())
	}

	return w.Bytes()
}

// headerBytes encodes the fixed 64-byte header with trailer_crc32 held at
// the given value (zero when computing the CRC, since the field is
// excluded from its own coverage by being zeroed rather than omitted).
func (t Trailer) headerBytes(trailerCRC int32) []byte {
	w := primitive.NewWriterSize(format.TrailerHeaderSize)
	w.WriteBytes([]byte(format.MagicTrailer))
	w.WriteInt32(t.Version)
	w.WriteInt64(t.TocOffset)
	w.WriteInt64(t.TocSize)
	w.WriteInt64(t.EntryCount)
	w.WriteInt64(t.TotalOriginalSize)
	w.WriteInt64(t.TotalStoredSize)
	w.WriteInt32(t.TocCRC32)
	w.WriteInt32(trailerCRC)
	w.WriteInt64(t.FileSize)

	return w.Bytes()
}

// Encode serializes the 64-byte fixed header followed by the TOC entries.
func (t Trailer) Encode() []byte {
	w := primitive.NewWriter()
	w.WriteBytes(t.headerBytes(t.TrailerCRC32))
	w.WriteBytes(t.tocBytes())

	return w.Bytes()
}

// DecodeTrailer reads the fixed trailer header and its entry_count TOC
// entries from r. It does not seek; callers position r
// at file_header.trailer_offset first.
func DecodeTrailer(r *primitive.Reader) (Trailer, error) {
	start := r.Pos()

	magic, err := r.ReadBounded("magic", len(format.MagicTrailer), len(format.MagicTrailer))
	if err != nil {
		return Trailer{}, err
	}
	if string(magic) != format.MagicTrailer {
		return Trailer{}, &errs.InvalidFormatError{Offset: start, Expected: format.MagicTrailer, Observed: string(magic)}
	}

	var t Trailer
	if t.Version, err = r.ReadInt32(); err != nil {
		return Trailer{}, err
	}
	if t.TocOffset, err = r.ReadInt64(); err != nil {
		return Trailer{}, err
	}
	if t.TocSize, err = r.ReadInt64(); err != nil {
		return Trailer{}, err
	}
	if t.EntryCount, err = r.ReadInt64(); err != nil {
		return Trailer{}, err
	}
	if t.EntryCount < 0 || t.EntryCount > format.MaxEntryCount {
		return Trailer{}, &errs.OutOfBoundsError{Field: "entry_count", Value: t.EntryCount, Min: 0, Max: format.MaxEntryCount}
	}
	if t.TotalOriginalSize, err = r.ReadInt64(); err != nil {
		return Trailer{}, err
	}
	if t.TotalStoredSize, err = r.ReadInt64(); err != nil {
		return Trailer{}, err
	}
	if t.TocCRC32, err = r.ReadInt32(); err != nil {
		return Trailer{}, err
	}
	if t.TrailerCRC32, err = r.ReadInt32(); err != nil {
		return Trailer{}, err
	}
	if t.FileSize, err = r.ReadInt64(); err != nil {
		return Trailer{}, err
	}

	wantTocSize := t.EntryCount * format.TocEntrySize
	if t.TocSize != wantTocSize {
		return Trailer{}, &errs.OutOfBoundsError{Field: "toc_size", Value: t.TocSize, Min: wantTocSize, Max: wantTocSize}
	}

	t.Entries = make([]TocEntry, 0, t.EntryCount)
	for i := int64(0); i < t.EntryCount; i++ {
		e, err := DecodeTocEntry(r)
		if err != nil {
			return Trailer{}, err
		}
		t.Entries = append(t.Entries, e)
	}

	return t, nil
}

// VerifyTrailerCRC32 reports whether TrailerCRC32 matches the CRC computed
// over the fixed header with the field zeroed.
func (t Trailer) VerifyTrailerCRC32() bool {
	return t.ComputedTrailerCRC32() == t.TrailerCRC32
}

// ComputedTrailerCRC32 returns the CRC-32 a correctly-written trailer
// header would carry.
func (t Trailer) ComputedTrailerCRC32() int32 {
	return int32(crc32.ChecksumIEEE(t.headerBytes(0))) //nolint: gosec
}

// VerifyTocCRC32 reports whether TocCRC32 matches the CRC computed over
// the encoded TOC entries.
func (t Trailer) VerifyTocCRC32() bool {
	return t.ComputedTocCRC32() == t.TocCRC32
}

// ComputedTocCRC32 returns the CRC-32 a correctly-written TOC blob would carry.
func (t Trailer) ComputedTocCRC32() int32 {
	return int32(crc32.ChecksumIEEE(t.tocBytes())) //nolint: gosec
}
