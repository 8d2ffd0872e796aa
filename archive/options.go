package archive

import (
	"fmt"

	"github.com/apack-io/apack/checksum"
	"github.com/apack-io/apack/compress"
	"github.com/apack-io/apack/crypto"
	"github.com/apack-io/apack/header"
	"github.com/apack-io/apack/internal/options"
	"github.com/apack-io/apack/stream"
)

// WriterOption configures a WriterConfig via the functional-options
// pattern.
type WriterOption = options.Option[*WriterConfig]

// WithChunkSize overrides the default chunk size.
func WithChunkSize(n int32) WriterOption {
	return options.NoError(func(c *WriterConfig) { c.ChunkSize = n })
}

// WithChecksum selects the checksum algorithm used per chunk.
func WithChecksum(p checksum.Provider) WriterOption {
	return options.NoError(func(c *WriterConfig) { c.Checksum = p })
}

// WithCompression enables per-chunk compression via p at the given
// level, subject to the adaptive skip rule: a chunk that does not shrink
// is stored uncompressed.
func WithCompression(p compress.Provider, level int) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.Compression = p
		c.CompressionLevel = level
	})
}

// WithEncryption enables per-chunk AEAD encryption via p, keyed by key,
// with optional aad bound into every chunk's associated data. It rejects
// a key whose length doesn't match p.KeySize().
func WithEncryption(p crypto.Provider, key, aad []byte) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if p != nil && len(key) != p.KeySize() {
			return fmt.Errorf("archive: key length %d does not match %s key size %d", len(key), p.Name(), p.KeySize())
		}

		c.Encryption = p
		c.Key = key
		c.AAD = aad

		return nil
	})
}

// WithEncryptionBlock attaches the already-wrapped EncryptionBlock an
// external KDF collaborator produced, setting the ENCRYPTED mode flag.
func WithEncryptionBlock(eb *header.EncryptionBlock) WriterOption {
	return options.NoError(func(c *WriterConfig) { c.EncryptionBlock = eb })
}

// WithStreamMode switches the Writer to STREAM_MODE: no TOC, a
// StreamTrailer in place of Trailer, at most one entry.
func WithStreamMode() WriterOption {
	return options.NoError(func(c *WriterConfig) { c.StreamMode = true })
}

// ReaderOption configures a ReaderConfig via the functional-options
// pattern, mirroring WriterOption.
type ReaderOption = options.Option[*ReaderConfig]

// WithValidateChecksums toggles per-chunk checksum verification. Enabled
// by default.
func WithValidateChecksums(enabled bool) ReaderOption {
	return options.NoError(func(c *ReaderConfig) { c.ValidateChecksums = enabled })
}

// WithSecurity overrides the chunk security bounds enforced against
// crafted headers.
func WithSecurity(s stream.ChunkSecuritySettings) ReaderOption {
	return options.NoError(func(c *ReaderConfig) { c.Security = s })
}

// WithReaderKey supplies the content key (and optional AAD) an external
// KDF collaborator already unwrapped from the archive's EncryptionBlock.
// Required to open entries in an ENCRYPTED archive.
func WithReaderKey(key, aad []byte) ReaderOption {
	return options.NoError(func(c *ReaderConfig) {
		c.Key = key
		c.AAD = aad
	})
}
