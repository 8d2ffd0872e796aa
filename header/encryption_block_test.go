package header

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

func TestEncryptionBlock_RoundTrip(t *testing.T) {
	b := EncryptionBlock{
		KDFID:          uint8(format.KDFArgon2id),
		CipherID:       uint8(format.EncryptionAES256GCM),
		KDFIterations:  3,
		KDFMemoryKB:    65536,
		KDFParallelism: 4,
		Salt:           bytes.Repeat([]byte{0xAB}, 16),
		WrappedKey:     bytes.Repeat([]byte{0xCD}, 40), // 40 -> embedded ICV per UnwrapHint
	}

	encoded := b.Encode()
	require.Zero(t, len(encoded)%format.RecordAlignment)

	got, err := DecodeEncryptionBlock(primitive.NewReader(bytes.NewReader(encoded)))
	require.NoError(t, err)
	require.Equal(t, b.Salt, got.Salt)
	require.Equal(t, b.WrappedKey, got.WrappedKey)
	require.True(t, got.UnwrapHint())
}

func TestEncryptionBlock_UnwrapHint_SplitTag(t *testing.T) {
	b := EncryptionBlock{WrappedKey: bytes.Repeat([]byte{1}, 48)}
	require.False(t, b.UnwrapHint())
}

func TestEncryptionBlock_CorruptMagicRejected(t *testing.T) {
	b := EncryptionBlock{WrappedKey: bytes.Repeat([]byte{1}, 32)}
	encoded := b.Encode()
	encoded[0] ^= 0xFF

	_, err := DecodeEncryptionBlock(primitive.NewReader(bytes.NewReader(encoded)))
	require.Error(t, err)

	var fmtErr *errs.InvalidFormatError
	require.ErrorAs(t, err, &fmtErr)
}

func TestEncryptionBlock_OversizedSaltRejectedBeforeAllocation(t *testing.T) {
	b := EncryptionBlock{Salt: bytes.Repeat([]byte{1}, 16), WrappedKey: bytes.Repeat([]byte{1}, 32)}
	encoded := b.Encode()
	// salt_len (uint16) sits right after magic(4) + 4 uint8s + 3 int32s = 20.
	saltLenOffset := 4 + 1 + 1 + 1 + 1 + 4 + 4 + 4
	encoded[saltLenOffset] = 0xFF
	encoded[saltLenOffset+1] = 0xFF

	_, err := DecodeEncryptionBlock(primitive.NewReader(bytes.NewReader(encoded)))
	require.Error(t, err)

	var boundsErr *errs.OutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
}
