package header

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack-io/apack/primitive"
)

func TestAttribute_TypedRoundTrip(t *testing.T) {
	attrs := []Attribute{
		NewStringAttribute("author", "jane"),
		NewInt64Attribute("mtime", -42),
		NewFloat64Attribute("ratio", 3.25),
		NewBoolAttribute("executable", true),
		NewBytesAttribute("raw", []byte{1, 2, 3, 4}),
	}

	for _, a := range attrs {
		t.Run(a.Key, func(t *testing.T) {
			w := primitive.NewWriter()
			a.encode(w)

			got, err := decodeAttribute(primitive.NewReader(bytes.NewReader(w.Bytes())))
			require.NoError(t, err)
			require.Equal(t, a.Key, got.Key)
			require.Equal(t, a.Type, got.Type)
			require.Equal(t, a.Value, got.Value)
		})
	}

	s, err := attrs[0].StringValue()
	require.NoError(t, err)
	require.Equal(t, "jane", s)

	i, err := attrs[1].Int64Value()
	require.NoError(t, err)
	require.Equal(t, int64(-42), i)

	f, err := attrs[2].Float64Value()
	require.NoError(t, err)
	require.InDelta(t, 3.25, f, 0)

	b, err := attrs[3].BoolValue()
	require.NoError(t, err)
	require.True(t, b)

	raw, err := attrs[4].BytesValue()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, raw)
}

func TestAttribute_KindMismatchRejected(t *testing.T) {
	a := NewStringAttribute("k", "v")

	_, err := a.Int64Value()
	require.Error(t, err)

	_, err = a.BoolValue()
	require.Error(t, err)
}
