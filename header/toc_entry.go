package header

import (
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

// TocEntry is the fixed 40-byte table-of-contents record held in the
// Trailer, one per archived entry.
type TocEntry struct {
	EntryID      int64
	EntryOffset  int64 // absolute file offset to the EntryHeader
	OriginalSize int64
	StoredSize   int64
	NameHash     int32 // XXH3 lower 32 bits of UTF-8 name
	HeaderCRC32  int32 // mirrors EntryHeader.header_crc32
}

// Encode serializes the entry to exactly 40 bytes.
func (t TocEntry) Encode() []byte {
	w := primitive.NewWriterSize(format.TocEntrySize)
	w.WriteInt64(t.EntryID)
	w.WriteInt64(t.EntryOffset)
	w.WriteInt64(t.OriginalSize)
	w.WriteInt64(t.StoredSize)
	w.WriteInt32(t.NameHash)
	w.WriteInt32(t.HeaderCRC32)

	out := w.Bytes()
	if len(out) != format.TocEntrySize {
		panic("header: TocEntry encoded to unexpected size")
	}

	return out
}

// DecodeTocEntry reads a TocEntry from r. TocEntry carries no magic of its
// own and no intrinsic bounds beyond the fixed field widths; the Trailer's
// toc_crc32 covers the whole TOC blob, verified by the caller.
func DecodeTocEntry(r *primitive.Reader) (TocEntry, error) {
	var t TocEntry
	var err error

	if t.EntryID, err = r.ReadInt64(); err != nil {
		return TocEntry{}, err
	}
	if t.EntryOffset, err = r.ReadInt64(); err != nil {
		return TocEntry{}, err
	}
	if t.OriginalSize, err = r.ReadInt64(); err != nil {
		return TocEntry{}, err
	}
	if t.StoredSize, err = r.ReadInt64(); err != nil {
		return TocEntry{}, err
	}
	if t.NameHash, err = r.ReadInt32(); err != nil {
		return TocEntry{}, err
	}
	if t.HeaderCRC32, err = r.ReadInt32(); err != nil {
		return TocEntry{}, err
	}

	return t, nil
}
