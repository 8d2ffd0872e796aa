package header

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

func TestTocEntry_RoundTrip(t *testing.T) {
	e := TocEntry{
		EntryID:      7,
		EntryOffset:  128,
		OriginalSize: 4096,
		StoredSize:   2048,
		NameHash:     int32(0x1234),
		HeaderCRC32:  int32(0xABCD),
	}

	encoded := e.Encode()
	require.Len(t, encoded, format.TocEntrySize)

	got, err := DecodeTocEntry(primitive.NewReader(bytes.NewReader(encoded)))
	require.NoError(t, err)
	require.Equal(t, e, got)
}
