package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/apack-io/apack/checksum"
	"github.com/apack-io/apack/compress"
	"github.com/apack-io/apack/crypto"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/header"
	"github.com/apack-io/apack/internal/pool"
)

// OutputConfig configures a ChunkedOutputStream.
type OutputConfig struct {
	ChunkSize int32
	Checksum  checksum.Provider // required

	Compression      compress.Provider // nil or CompressionNone disables compression
	CompressionLevel int

	Encryption crypto.Provider // nil or EncryptionNone disables encryption
	Key        []byte
	AAD        []byte
}

// ChunkedOutputStream buffers writes up to ChunkSize and emits one
// checksummed, optionally compressed and encrypted chunk per flush. The
// zero value is not usable; construct with NewOutputStream.
type ChunkedOutputStream struct {
	w   io.Writer
	cfg OutputConfig

	buf        []byte
	chunkIndex int32

	chunksWritten int32
	totalOriginal int64
	totalStored   int64
	lastChecksum  uint64

	finished bool
}

// NewOutputStream constructs a ChunkedOutputStream writing to w.
func NewOutputStream(w io.Writer, cfg OutputConfig) *ChunkedOutputStream {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = format.DefaultChunkSize
	}

	return &ChunkedOutputStream{
		w:   w,
		cfg: cfg,
		buf: make([]byte, 0, cfg.ChunkSize),
	}
}

// Write buffers p, flushing full chunks as the buffer fills. It never
// returns a short write without an error.
func (s *ChunkedOutputStream) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		space := int(s.cfg.ChunkSize) - len(s.buf)
		n := len(p)
		if n > space {
			n = space
		}

		s.buf = append(s.buf, p[:n]...)
		p = p[n:]
		written += n

		if len(s.buf) == int(s.cfg.ChunkSize) {
			if err := s.flushChunk(false); err != nil {
				return written, err
			}
		}
	}

	return written, nil
}

// Finish flushes any buffered bytes as the final (LAST) chunk. An entry
// that never buffered anything still writes exactly one chunk, with
// original_size 0 and LAST set. Finish is idempotent.
func (s *ChunkedOutputStream) Finish() error {
	if s.finished {
		return nil
	}

	if err := s.flushChunk(true); err != nil {
		return err
	}

	s.finished = true

	return nil
}

// ChunksWritten returns the number of chunks emitted so far.
func (s *ChunkedOutputStream) ChunksWritten() int32 { return s.chunksWritten }

// TotalOriginalBytes returns the sum of original (pre-chunk-pipeline) bytes
// across every chunk emitted so far.
func (s *ChunkedOutputStream) TotalOriginalBytes() int64 { return s.totalOriginal }

// TotalStoredBytes returns the sum of on-disk bytes across every chunk
// emitted so far.
func (s *ChunkedOutputStream) TotalStoredBytes() int64 { return s.totalStored }

// LastChecksum returns the checksum computed for the most recently emitted
// chunk (used by writers that need to populate an aggregate trailer field).
func (s *ChunkedOutputStream) LastChecksum() uint64 { return s.lastChecksum }

func (s *ChunkedOutputStream) flushChunk(last bool) error {
	original := s.buf
	checksumVal := s.cfg.Checksum.Compute(original)
	s.lastChecksum = checksumVal

	scratch := pool.GetScratch()
	defer pool.PutScratch(scratch)

	candidate := original
	compressed := false

	if s.cfg.Compression != nil && s.cfg.Compression.ID() != format.CompressionNone && len(original) > 0 {
		out, err := s.cfg.Compression.CompressBlock(original, s.cfg.CompressionLevel)
		if err != nil {
			return fmt.Errorf("stream: compress chunk %d: %w", s.chunkIndex, err)
		}
		if len(out) > 0 && len(out) < len(original) {
			scratch.B = append(scratch.B[:0], out...)
			candidate = scratch.B
			compressed = true
		}
	}

	encrypted := false
	if s.cfg.Encryption != nil && s.cfg.Encryption.ID() != format.EncryptionNone {
		nonce, err := crypto.NewNonce(s.cfg.Encryption)
		if err != nil {
			return err
		}

		sealed := make([]byte, 0, len(nonce)+len(candidate)+s.cfg.Encryption.Overhead())
		sealed = append(sealed, nonce...)
		sealed, err = s.cfg.Encryption.Seal(sealed, nonce, candidate, chunkAAD(s.cfg.AAD, s.chunkIndex), s.cfg.Key)
		if err != nil {
			return fmt.Errorf("stream: encrypt chunk %d: %w", s.chunkIndex, err)
		}

		candidate = sealed
		encrypted = true
	}

	var flags int32
	if last {
		flags |= format.ChunkFlagLast
	}
	if compressed {
		flags |= format.ChunkFlagCompressed
	}
	if encrypted {
		flags |= format.ChunkFlagEncrypted
	}

	ch := header.ChunkHeader{
		ChunkIndex:   s.chunkIndex,
		OriginalSize: int32(len(original)), //nolint: gosec
		StoredSize:   int32(len(candidate)), //nolint: gosec
		Checksum:     int32(checksum.Lower32(checksumVal)), //nolint: gosec
		Flags:        flags,
	}

	if _, err := s.w.Write(ch.Encode()); err != nil {
		return fmt.Errorf("stream: write chunk %d header: %w", s.chunkIndex, err)
	}
	if _, err := s.w.Write(candidate); err != nil {
		return fmt.Errorf("stream: write chunk %d body: %w", s.chunkIndex, err)
	}

	s.totalOriginal += int64(len(original))
	s.totalStored += int64(len(candidate))
	s.chunksWritten++
	s.chunkIndex++
	s.buf = s.buf[:0]

	return nil
}

// chunkAAD binds aad (which may be nil) to chunkIndex, so a chunk decrypted
// out of sequence fails authentication instead of silently succeeding.
func chunkAAD(aad []byte, chunkIndex int32) []byte {
	out := make([]byte, len(aad)+4)
	copy(out, aad)
	binary.BigEndian.PutUint32(out[len(aad):], uint32(chunkIndex)) //nolint: gosec

	return out
}
