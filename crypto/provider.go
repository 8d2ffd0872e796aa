// Package crypto implements the APACK encryption capability:
// AEAD seal/open with a 12-byte nonce and 16-byte tag, optional AAD, for
// the registered AES-256-GCM and ChaCha20-Poly1305 algorithms.
//
// The registry shape matches compress.Provider and checksum.Provider, so
// all three capabilities resolve the same way.
package crypto

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
)

// Provider is an AEAD encryption capability. Seal/Open operate on whole
// chunks (APACK never streams within a single AEAD operation; each chunk
// is one seal/open call with its own fresh nonce).
//
// Open does not distinguish an authentication failure from
// arbitrary ciphertext corruption in the error it returns, to avoid
// handing a caller a decryption oracle.
type Provider interface {
	ID() format.EncryptionAlgo
	Name() string
	// KeySize returns the expected key length in bytes.
	KeySize() int
	// NonceSize returns the expected nonce length in bytes (always 12 for
	// the registered algorithms).
	NonceSize() int
	// Overhead returns the number of bytes Seal adds beyond the plaintext
	// length (the AEAD tag; always 16 for the registered algorithms).
	Overhead() int
	// Seal encrypts plaintext under key, authenticating aad (which may be
	// nil), and appends the result to dst. nonce must be NonceSize() bytes
	// and must never be reused with the same key.
	Seal(dst, nonce, plaintext, aad, key []byte) ([]byte, error)
	// Open authenticates and decrypts ciphertext (which includes the
	// trailing tag) under key and aad, appending the plaintext to dst.
	Open(dst, nonce, ciphertext, aad, key []byte) ([]byte, error)
}

// NewNonce generates a fresh random nonce for the given provider. Every
// chunk is sealed under a fresh nonce; this is the single source of
// randomness every provider and the stream package funnel through.
func NewNonce(p Provider) ([]byte, error) {
	nonce := make([]byte, p.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}

	return nonce, nil
}

type registry struct {
	mu     sync.RWMutex
	byID   map[format.EncryptionAlgo]Provider
	byName map[string]Provider
}

var defaultRegistry = &registry{
	byID:   make(map[format.EncryptionAlgo]Provider),
	byName: make(map[string]Provider),
}

func (reg *registry) register(p Provider) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.byID[p.ID()] = p
	reg.byName[lower(p.Name())] = p
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}

	return string(b)
}

func init() {
	defaultRegistry.register(NewAESGCMProvider())
	defaultRegistry.register(NewChaCha20Poly1305Provider())
}

// Register adds a Provider to the default registry.
func Register(p Provider) {
	defaultRegistry.register(p)
}

// ByID resolves a provider by its numeric algorithm ID.
func ByID(id format.EncryptionAlgo) (Provider, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	p, ok := defaultRegistry.byID[id]
	if !ok {
		return nil, fmt.Errorf("crypto: unregistered encryption algorithm id %d", id)
	}

	return p, nil
}

// ByName resolves a provider by its case-insensitive registry name.
func ByName(name string) (Provider, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	p, ok := defaultRegistry.byName[lower(name)]
	if !ok {
		return nil, fmt.Errorf("crypto: unregistered encryption algorithm %q", name)
	}

	return p, nil
}

// wrapIntegrityError normalizes any AEAD failure (auth tag mismatch,
// malformed ciphertext, wrong key) into the single IntegrityError kind,
// deliberately discarding the underlying detail.
func wrapIntegrityError(algorithm string) error {
	return &errs.IntegrityError{Algorithm: algorithm}
}
