package endian

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLittleEndian_RoundTrip(t *testing.T) {
	require := require.New(t)

	buf := make([]byte, 8)

	LittleEndian.PutUint16(buf[:2], 0x0102)
	require.Equal([]byte{0x02, 0x01}, buf[:2])
	require.Equal(uint16(0x0102), LittleEndian.Uint16(buf[:2]))

	LittleEndian.PutUint32(buf[:4], 0x01020304)
	require.Equal([]byte{0x04, 0x03, 0x02, 0x01}, buf[:4])
	require.Equal(uint32(0x01020304), LittleEndian.Uint32(buf[:4]))

	LittleEndian.PutUint64(buf, 0x0102030405060708)
	require.Equal([]byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, buf)
	require.Equal(uint64(0x0102030405060708), LittleEndian.Uint64(buf))
}

func TestLittleEndian_Append(t *testing.T) {
	require := require.New(t)

	b := LittleEndian.AppendUint16(nil, 0xBEEF)
	require.Equal([]byte{0xEF, 0xBE}, b)

	b = LittleEndian.AppendUint32(b, 0xDEADBEEF)
	require.Len(b, 6)
	require.Equal(uint32(0xDEADBEEF), LittleEndian.Uint32(b[2:]))

	b = LittleEndian.AppendUint64(b, 0x1122334455667788)
	require.Len(b, 14)
	require.Equal(uint64(0x1122334455667788), LittleEndian.Uint64(b[6:]))
}

func TestLittleEndian_AppendGrowsInPlace(t *testing.T) {
	b := make([]byte, 0, 16)
	out := LittleEndian.AppendUint64(b, 42)
	require.Equal(t, uint64(42), LittleEndian.Uint64(out))
	require.Len(t, out, 8)
}
