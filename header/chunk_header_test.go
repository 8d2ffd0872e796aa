package header

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

func TestChunkHeader_RoundTrip(t *testing.T) {
	c := ChunkHeader{
		ChunkIndex:   2,
		OriginalSize: 4096,
		StoredSize:   2048,
		Checksum:     0x5EADBEEF,
		Flags:        format.ChunkFlagCompressed,
	}

	encoded := c.Encode()
	require.Len(t, encoded, format.ChunkHeaderSize)

	got, err := DecodeChunkHeader(primitive.NewReader(bytes.NewReader(encoded)))
	require.NoError(t, err)
	require.Equal(t, c, got)
	require.False(t, got.IsLast())
}

func TestChunkHeader_LastFlag(t *testing.T) {
	c := ChunkHeader{Flags: format.ChunkFlagLast}
	require.True(t, c.IsLast())
}

func TestChunkHeader_CorruptMagicRejected(t *testing.T) {
	c := ChunkHeader{}
	encoded := c.Encode()
	encoded[1] ^= 0xFF

	_, err := DecodeChunkHeader(primitive.NewReader(bytes.NewReader(encoded)))
	require.Error(t, err)

	var fmtErr *errs.InvalidFormatError
	require.ErrorAs(t, err, &fmtErr)
}

func TestChunkHeader_OversizedOriginalSizeRejected(t *testing.T) {
	c := ChunkHeader{OriginalSize: format.MaxChunkSize + 1}
	encoded := c.Encode()

	_, err := DecodeChunkHeader(primitive.NewReader(bytes.NewReader(encoded)))
	require.Error(t, err)

	var boundsErr *errs.OutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
}
