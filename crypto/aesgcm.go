package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/apack-io/apack/format"
)

// AESGCMProvider implements AES-256-GCM (id 1) using the standard
// library's crypto/aes + crypto/cipher.
type AESGCMProvider struct{}

var _ Provider = AESGCMProvider{}

// NewAESGCMProvider creates an AES-256-GCM encryption provider.
func NewAESGCMProvider() AESGCMProvider { return AESGCMProvider{} }

func (AESGCMProvider) ID() format.EncryptionAlgo { return format.EncryptionAES256GCM }
func (AESGCMProvider) Name() string              { return "aes-256-gcm" }
func (AESGCMProvider) KeySize() int               { return format.KeySize }
func (AESGCMProvider) NonceSize() int             { return format.NonceSize }
func (AESGCMProvider) Overhead() int              { return format.TagSize }

func (p AESGCMProvider) newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCMWithNonceSize(block, p.NonceSize())
}

func (p AESGCMProvider) Seal(dst, nonce, plaintext, aad, key []byte) ([]byte, error) {
	aead, err := p.newAEAD(key)
	if err != nil {
		return nil, err
	}

	return aead.Seal(dst, nonce, plaintext, aad), nil
}

func (p AESGCMProvider) Open(dst, nonce, ciphertext, aad, key []byte) ([]byte, error) {
	aead, err := p.newAEAD(key)
	if err != nil {
		return nil, wrapIntegrityError(p.Name())
	}

	out, err := aead.Open(dst, nonce, ciphertext, aad)
	if err != nil {
		return nil, wrapIntegrityError(p.Name())
	}

	return out, nil
}
