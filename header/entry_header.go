package header

import (
	"hash/crc32"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

// EntryHeader describes a single archived entry: its
// identity, original/stored sizes, chunking and algorithm choices, name,
// MIME type, and typed attributes.
type EntryHeader struct {
	HeaderVersion  uint16
	Flags          uint16
	EntryID        int64
	OriginalSize   int64
	StoredSize     int64
	ChunkCount     int32
	CompressionID  int32
	EncryptionID   int32
	Name           string
	MimeType       string
	Attributes     []Attribute
	HeaderCRC32    int32
}

// HasFlag reports whether the given entry flag bit is set.
func (h EntryHeader) HasFlag(flag uint16) bool { return h.Flags&flag != 0 }

// Encode serializes the header, 8-byte aligned,
// computing and embedding header_crc32 over the whole header body
// (the fixed fields with header_crc32 itself held at zero, followed by
// name/mime_type/attributes, excluding trailing padding).
func (h EntryHeader) Encode() []byte {
	body := h.encodeBody(0)
	crc := int32(crc32.ChecksumIEEE(body)) //nolint: gosec

	w := primitive.NewWriter()
	w.WriteBytes(h.encodeBody(crc))
	w.PadToAlignment(format.RecordAlignment)

	return w.Bytes()
}

// encodeBody writes the fixed fields + variable name/mime_type/attributes
// (everything except trailing alignment padding) with the given CRC value
// embedded in the header_crc32 field.
func (h EntryHeader) encodeBody(crc int32) []byte {
	w := primitive.NewWriterSize(format.EntryHeaderMinSize + len(h.Name) + len(h.MimeType))
	w.WriteBytes([]byte(format.MagicEntry))
	w.WriteUint16(h.HeaderVersion)
	w.WriteUint16(h.Flags)
	w.WriteInt64(h.EntryID)
	w.WriteInt64(h.OriginalSize)
	w.WriteInt64(h.StoredSize)
	w.WriteInt32(h.ChunkCount)
	w.WriteInt32(h.CompressionID)
	w.WriteInt32(h.EncryptionID)
	w.WriteUint16(uint16(len(h.Name)))     //nolint: gosec
	w.WriteUint16(uint16(len(h.MimeType))) //nolint: gosec
	w.WriteInt32(int32(len(h.Attributes))) //nolint: gosec
	w.WriteInt32(crc)
	w.WriteString(h.Name)
	w.WriteString(h.MimeType)
	for _, a := range h.Attributes {
		a.encode(w)
	}

	return w.Bytes()
}

// DecodeEntryHeader reads and validates an EntryHeader from r.
func DecodeEntryHeader(r *primitive.Reader) (EntryHeader, error) {
	start := r.Pos()

	magic, err := r.ReadBounded("magic", len(format.MagicEntry), len(format.MagicEntry))
	if err != nil {
		return EntryHeader{}, err
	}
	if string(magic) != format.MagicEntry {
		return EntryHeader{}, &errs.InvalidFormatError{Offset: start, Expected: format.MagicEntry, Observed: string(magic)}
	}

	var h EntryHeader
	if h.HeaderVersion, err = r.ReadUint16(); err != nil {
		return EntryHeader{}, err
	}
	if h.Flags, err = r.ReadUint16(); err != nil {
		return EntryHeader{}, err
	}
	if h.EntryID, err = r.ReadInt64(); err != nil {
		return EntryHeader{}, err
	}
	if h.OriginalSize, err = r.ReadInt64(); err != nil {
		return EntryHeader{}, err
	}
	if h.OriginalSize < 0 || h.OriginalSize > format.MaxEntrySize {
		return EntryHeader{}, &errs.OutOfBoundsError{Field: "original_size", Value: h.OriginalSize, Min: 0, Max: format.MaxEntrySize}
	}
	if h.StoredSize, err = r.ReadInt64(); err != nil {
		return EntryHeader{}, err
	}
	if h.StoredSize < 0 || h.StoredSize > format.MaxEntrySize {
		return EntryHeader{}, &errs.OutOfBoundsError{Field: "stored_size", Value: h.StoredSize, Min: 0, Max: format.MaxEntrySize}
	}
	if h.ChunkCount, err = r.ReadInt32(); err != nil {
		return EntryHeader{}, err
	}
	if h.CompressionID, err = r.ReadInt32(); err != nil {
		return EntryHeader{}, err
	}
	if h.EncryptionID, err = r.ReadInt32(); err != nil {
		return EntryHeader{}, err
	}

	nameLen, err := r.ReadUint16()
	if err != nil {
		return EntryHeader{}, err
	}
	mimeLen, err := r.ReadUint16()
	if err != nil {
		return EntryHeader{}, err
	}

	attrCount, err := r.ReadInt32()
	if err != nil {
		return EntryHeader{}, err
	}
	if attrCount < 0 || int64(attrCount) > format.MaxEntryCount {
		return EntryHeader{}, &errs.OutOfBoundsError{Field: "attribute_count", Value: int64(attrCount), Min: 0, Max: format.MaxEntryCount}
	}

	if h.HeaderCRC32, err = r.ReadInt32(); err != nil {
		return EntryHeader{}, err
	}

	if h.Name, err = r.ReadString("name", int(nameLen), format.MaxEntryNameLen); err != nil {
		return EntryHeader{}, err
	}
	if h.MimeType, err = r.ReadString("mime_type", int(mimeLen), format.MaxEntryNameLen); err != nil {
		return EntryHeader{}, err
	}

	h.Attributes = make([]Attribute, 0, attrCount)
	for i := int32(0); i < attrCount; i++ {
		attr, err := decodeAttribute(r)
		if err != nil {
			return EntryHeader{}, err
		}
		h.Attributes = append(h.Attributes, attr)
	}

	if err := r.SkipToAlignment(format.RecordAlignment); err != nil {
		return EntryHeader{}, err
	}

	return h, nil
}

// VerifyCRC32 reports whether HeaderCRC32 matches the CRC computed over
// the header's re-encoded body (fixed fields with header_crc32 zeroed,
// plus name/mime_type/attributes).
func (h EntryHeader) VerifyCRC32() bool {
	return h.ComputedCRC32() == h.HeaderCRC32
}

// ComputedCRC32 returns the CRC-32 a correctly-written header would carry.
func (h EntryHeader) ComputedCRC32() int32 {
	body := h.encodeBody(0)
	return int32(crc32.ChecksumIEEE(body)) //nolint: gosec
}
