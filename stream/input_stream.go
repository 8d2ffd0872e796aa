package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/apack-io/apack/checksum"
	"github.com/apack-io/apack/compress"
	"github.com/apack-io/apack/crypto"
	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/header"
	"github.com/apack-io/apack/primitive"
)

// InputConfig configures a ChunkedInputStream.
type InputConfig struct {
	Checksum checksum.Provider // required

	Compression compress.Provider // nil or CompressionNone if chunks are never compressed

	Encryption crypto.Provider // nil or EncryptionNone if chunks are never encrypted
	Key        []byte
	AAD        []byte

	// ValidateChecksums is false in the zero value; DefaultInputConfig
	// sets it to true. NewInputStream uses the value as given.
	ValidateChecksums bool
	Security          ChunkSecuritySettings

	// OnChunkHeader, if set, is invoked after each chunk header is read
	// and validated, before its body is read.
	OnChunkHeader func(header.ChunkHeader)
}

// DefaultInputConfig returns an InputConfig with ValidateChecksums true
// and the default ChunkSecuritySettings, the rest left for the caller to fill in.
func DefaultInputConfig() InputConfig {
	return InputConfig{
		ValidateChecksums: true,
		Security:          DefaultChunkSecuritySettings(),
	}
}

// ChunkedInputStream reads the chunk sequence written by a
// ChunkedOutputStream, running each chunk through decrypt/decompress/verify
// before handing the plaintext to the caller.
type ChunkedInputStream struct {
	r   *primitive.Reader
	cfg InputConfig

	expectedIndex int32
	current       []byte
	currentPos    int
	sawLast       bool
}

// NewInputStream constructs a ChunkedInputStream reading from r.
func NewInputStream(r io.Reader, cfg InputConfig) *ChunkedInputStream {
	return &ChunkedInputStream{r: primitive.NewReader(r), cfg: cfg}
}

// Read implements io.Reader, copying from the current decoded chunk and
// advancing to the next chunk on exhaustion.
func (s *ChunkedInputStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for s.currentPos == len(s.current) {
		if s.sawLast {
			return 0, io.EOF
		}
		if err := s.readNextChunk(); err != nil {
			if errors.Is(err, io.EOF) && s.expectedIndex == 0 {
				// Empty stream: EOF at chunk_index 0 is acceptable,
				// not a truncation error.
				s.sawLast = true
				return 0, io.EOF
			}

			return 0, err
		}
	}

	n := copy(p, s.current[s.currentPos:])
	s.currentPos += n

	return n, nil
}

// readNextChunk runs the state machine for one chunk: header, bounds,
// stored bytes, decrypt, decompress, verify.
func (s *ChunkedInputStream) readNextChunk() error {
	ch, err := header.DecodeChunkHeader(s.r)
	if err != nil {
		var trunc *errs.TruncatedInputError
		if errors.As(err, &trunc) && trunc.Remaining == 0 && s.expectedIndex == 0 {
			// Nothing at all was read for the first chunk header:
			// an empty stream, which is acceptable.
			return io.EOF
		}

		return err
	}

	if ch.ChunkIndex != s.expectedIndex {
		return errs.ErrChunkIndexMismatch
	}

	if err := s.checkSizeRelationship(ch); err != nil {
		return err
	}

	if s.cfg.OnChunkHeader != nil {
		s.cfg.OnChunkHeader(ch)
	}

	stored, err := s.r.ReadBounded("chunk.stored_bytes", int(ch.StoredSize), int(s.cfg.Security.MaxChunkSize))
	if err != nil {
		return err
	}

	plain := stored

	if ch.HasFlag(format.ChunkFlagEncrypted) {
		if s.cfg.Encryption == nil || s.cfg.Encryption.ID() == format.EncryptionNone {
			return errs.ErrNoEncryptionConfigured
		}

		nonceSize := s.cfg.Encryption.NonceSize()
		if len(stored) < nonceSize {
			return &errs.IntegrityError{Algorithm: s.cfg.Encryption.Name()}
		}

		nonce := stored[:nonceSize]
		ciphertext := stored[nonceSize:]

		opened, err := s.cfg.Encryption.Open(nil, nonce, ciphertext, chunkAAD(s.cfg.AAD, ch.ChunkIndex), s.cfg.Key)
		if err != nil {
			return &errs.IntegrityError{Algorithm: s.cfg.Encryption.Name()}
		}

		plain = opened
	}

	if ch.HasFlag(format.ChunkFlagCompressed) {
		if s.cfg.Compression == nil {
			return fmt.Errorf("stream: chunk %d marked compressed but no compression provider configured", ch.ChunkIndex)
		}

		decompressed, err := s.cfg.Compression.DecompressBlock(plain, int(ch.OriginalSize))
		if err != nil {
			return &errs.DecompressionFailedError{Algorithm: s.cfg.Compression.Name(), Detail: err.Error()}
		}
		if int32(len(decompressed)) != ch.OriginalSize { //nolint: gosec
			return &errs.DecompressionFailedError{Algorithm: s.cfg.Compression.Name(), Detail: "decompressed length mismatch"}
		}

		plain = decompressed
	}

	if s.cfg.ValidateChecksums {
		want := checksum.Lower32(s.cfg.Checksum.Compute(plain))
		got := uint32(ch.Checksum) //nolint: gosec
		if want != got {
			return &errs.ChecksumMismatchError{Expected: want, Actual: got, ChunkIndex: ch.ChunkIndex, Context: "chunk"}
		}
	}

	s.current = plain
	s.currentPos = 0
	s.expectedIndex++

	if ch.IsLast() {
		s.sawLast = true
	}

	return nil
}

// checkSizeRelationship enforces the flag-keyed stored/original size
// rule, bounding compression ratio and encryption overhead before any
// decrypt/decompress allocation happens.
func (s *ChunkedInputStream) checkSizeRelationship(ch header.ChunkHeader) error {
	original := int64(ch.OriginalSize)
	stored := int64(ch.StoredSize)

	if original > s.cfg.Security.MaxChunkSize {
		return &errs.OutOfBoundsError{Field: "original_size", Value: original, Min: 0, Max: s.cfg.Security.MaxChunkSize}
	}
	if stored > s.cfg.Security.MaxChunkSize {
		return &errs.OutOfBoundsError{Field: "stored_size", Value: stored, Min: 0, Max: s.cfg.Security.MaxChunkSize}
	}

	compressed := ch.HasFlag(format.ChunkFlagCompressed)
	encrypted := ch.HasFlag(format.ChunkFlagEncrypted)

	switch {
	case !compressed && !encrypted:
		if stored != original {
			return &errs.OutOfBoundsError{Field: "stored_size", Value: stored, Min: original, Max: original}
		}
	case encrypted && !compressed:
		maxStored := original + s.cfg.Security.MaxEncryptionOverhead
		if stored < original || stored > maxStored {
			return &errs.OutOfBoundsError{Field: "stored_size", Value: stored, Min: original, Max: maxStored}
		}
	case compressed:
		// Applies whether or not ENCRYPTED is also set: stored_size is the
		// only length observed before decrypting, so the ratio bound is
		// checked against it directly, which is at least as conservative
		// as checking the unencrypted compressed length.
		if original > stored*s.cfg.Security.MaxCompressionRatio {
			return &errs.OutOfBoundsError{Field: "original_size", Value: original, Min: 0, Max: stored * s.cfg.Security.MaxCompressionRatio}
		}
	}

	return nil
}

// Close reports a truncation error if the stream ended before a LAST chunk
// was observed past chunk_index 0; an empty stream
// (EOF at chunk_index 0) is acceptable and reported as such by the first Read.
func (s *ChunkedInputStream) Close() error {
	if s.expectedIndex > 0 && !s.sawLast {
		return errs.ErrMissingLastChunk
	}

	return nil
}
