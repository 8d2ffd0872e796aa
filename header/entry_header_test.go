package header

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

func TestEntryHeader_RoundTrip(t *testing.T) {
	h := EntryHeader{
		HeaderVersion: 1,
		Flags:         format.EntryFlagHasAttributes | format.EntryFlagCompressed,
		EntryID:       42,
		OriginalSize:  1 << 20,
		StoredSize:    1 << 18,
		ChunkCount:    5,
		CompressionID: int32(format.CompressionZstd),
		EncryptionID:  int32(format.EncryptionNone),
		Name:          "assets/logo.png",
		MimeType:      "image/png",
		Attributes: []Attribute{
			NewStringAttribute("author", "jane"),
			NewInt64Attribute("mtime", 1700000000),
		},
	}

	encoded := h.Encode()
	require.Zero(t, len(encoded)%format.RecordAlignment)

	got, err := DecodeEntryHeader(primitive.NewReader(bytes.NewReader(encoded)))
	require.NoError(t, err)
	require.Equal(t, h.EntryID, got.EntryID)
	require.Equal(t, h.Name, got.Name)
	require.Equal(t, h.MimeType, got.MimeType)
	require.Equal(t, h.Attributes, got.Attributes)
	require.True(t, got.HasFlag(format.EntryFlagHasAttributes))
	require.True(t, got.VerifyCRC32())
}

func TestEntryHeader_NoAttributes(t *testing.T) {
	h := EntryHeader{Name: "empty.bin"}
	encoded := h.Encode()

	got, err := DecodeEntryHeader(primitive.NewReader(bytes.NewReader(encoded)))
	require.NoError(t, err)
	require.Empty(t, got.Attributes)
	require.Equal(t, "empty.bin", got.Name)
}

func TestEntryHeader_CorruptMagicRejected(t *testing.T) {
	h := EntryHeader{Name: "x"}
	encoded := h.Encode()
	encoded[0] ^= 0xFF

	_, err := DecodeEntryHeader(primitive.NewReader(bytes.NewReader(encoded)))
	require.Error(t, err)

	var fmtErr *errs.InvalidFormatError
	require.ErrorAs(t, err, &fmtErr)
}

func TestEntryHeader_TamperedCRCDetected(t *testing.T) {
	h := EntryHeader{Name: "x", OriginalSize: 10, StoredSize: 10}
	encoded := h.Encode()
	encoded[len(format.MagicEntry)] ^= 0x01 // flips a byte in header_version, before CRC field

	got, err := DecodeEntryHeader(primitive.NewReader(bytes.NewReader(encoded)))
	require.NoError(t, err)
	require.False(t, got.VerifyCRC32())
}

func TestEntryHeader_OversizedOriginalSizeRejected(t *testing.T) {
	h := EntryHeader{Name: "x", OriginalSize: format.MaxEntrySize + 1}
	encoded := h.Encode()

	_, err := DecodeEntryHeader(primitive.NewReader(bytes.NewReader(encoded)))
	require.Error(t, err)

	var boundsErr *errs.OutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
}
