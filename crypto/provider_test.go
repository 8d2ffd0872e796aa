package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
)

func allProviders() []Provider {
	return []Provider{NewAESGCMProvider(), NewChaCha20Poly1305Provider()}
}

func TestProvider_SealOpenRoundTrip(t *testing.T) {
	for _, p := range allProviders() {
		t.Run(p.Name(), func(t *testing.T) {
			key := bytes.Repeat([]byte{0x42}, p.KeySize())
			nonce, err := NewNonce(p)
			require.NoError(t, err)
			require.Len(t, nonce, p.NonceSize())

			plaintext := []byte("a secret chunk of bytes")
			aad := []byte("entry-id:7")

			sealed, err := p.Seal(nil, nonce, plaintext, aad, key)
			require.NoError(t, err)
			require.Len(t, sealed, len(plaintext)+p.Overhead())

			opened, err := p.Open(nil, nonce, sealed, aad, key)
			require.NoError(t, err)
			require.Equal(t, plaintext, opened)
		})
	}
}

func TestProvider_TamperDetected(t *testing.T) {
	for _, p := range allProviders() {
		t.Run(p.Name(), func(t *testing.T) {
			key := bytes.Repeat([]byte{0x7}, p.KeySize())
			nonce, err := NewNonce(p)
			require.NoError(t, err)

			sealed, err := p.Seal(nil, nonce, []byte("payload"), nil, key)
			require.NoError(t, err)

			sealed[0] ^= 0xFF

			_, err = p.Open(nil, nonce, sealed, nil, key)
			require.Error(t, err)
			var integrityErr *errs.IntegrityError
			require.True(t, errors.As(err, &integrityErr))
		})
	}
}

func TestProvider_WrongAADRejected(t *testing.T) {
	p := NewAESGCMProvider()
	key := bytes.Repeat([]byte{0x1}, p.KeySize())
	nonce, err := NewNonce(p)
	require.NoError(t, err)

	sealed, err := p.Seal(nil, nonce, []byte("payload"), []byte("correct-aad"), key)
	require.NoError(t, err)

	_, err = p.Open(nil, nonce, sealed, []byte("wrong-aad"), key)
	require.Error(t, err)
}

func TestRegistry_ByIDAndName(t *testing.T) {
	p, err := ByID(format.EncryptionAES256GCM)
	require.NoError(t, err)
	require.Equal(t, "aes-256-gcm", p.Name())

	p, err = ByName("ChaCha20-Poly1305")
	require.NoError(t, err)
	require.Equal(t, format.EncryptionChaCha20Poly1305, p.ID())

	_, err = ByID(format.EncryptionAlgo(99))
	require.Error(t, err)
}
