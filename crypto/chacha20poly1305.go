package crypto

import (
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/apack-io/apack/format"
)

// ChaCha20Poly1305Provider implements ChaCha20-Poly1305 (id 2) via
// golang.org/x/crypto/chacha20poly1305.
type ChaCha20Poly1305Provider struct{}

var _ Provider = ChaCha20Poly1305Provider{}

// NewChaCha20Poly1305Provider creates a ChaCha20-Poly1305 encryption provider.
func NewChaCha20Poly1305Provider() ChaCha20Poly1305Provider { return ChaCha20Poly1305Provider{} }

func (ChaCha20Poly1305Provider) ID() format.EncryptionAlgo {
	return format.EncryptionChaCha20Poly1305
}
func (ChaCha20Poly1305Provider) Name() string  { return "chacha20-poly1305" }
func (ChaCha20Poly1305Provider) KeySize() int  { return chacha20poly1305.KeySize }
func (ChaCha20Poly1305Provider) NonceSize() int { return chacha20poly1305.NonceSize }
func (ChaCha20Poly1305Provider) Overhead() int  { return chacha20poly1305.Overhead }

func (p ChaCha20Poly1305Provider) Seal(dst, nonce, plaintext, aad, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return aead.Seal(dst, nonce, plaintext, aad), nil
}

func (p ChaCha20Poly1305Provider) Open(dst, nonce, ciphertext, aad, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, wrapIntegrityError(p.Name())
	}

	out, err := aead.Open(dst, nonce, ciphertext, aad)
	if err != nil {
		return nil, wrapIntegrityError(p.Name())
	}

	return out, nil
}
