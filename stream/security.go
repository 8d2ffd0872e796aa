package stream

import (
	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
)

// ChunkSecuritySettings bounds what a ChunkedInputStream will trust from
// chunk headers before allocating or decompressing, so a maliciously
// crafted header (a decompression bomb, an oversized length) can't
// trigger unbounded memory use.
type ChunkSecuritySettings struct {
	// MaxChunkSize bounds original_size and stored_size. Must be in
	// (0, 256 MiB]; default 64 MiB.
	MaxChunkSize int64
	// MaxCompressionRatio bounds original_size / stored_size for
	// COMPRESSED chunks. Must be in (0, 1 000 000]; default 100 000.
	MaxCompressionRatio int64
	// MaxEncryptionOverhead bounds stored_size - original_size for
	// ENCRYPTED-but-not-COMPRESSED chunks. Must be in [0, 8192]; default 1024.
	MaxEncryptionOverhead int64
}

// DefaultChunkSecuritySettings returns the format's default bounds.
func DefaultChunkSecuritySettings() ChunkSecuritySettings {
	return ChunkSecuritySettings{
		MaxChunkSize:          format.SecurityMaxChunkSize,
		MaxCompressionRatio:   format.SecurityMaxCompressionRatio,
		MaxEncryptionOverhead: format.SecurityMaxEncryptionOverhead,
	}
}

// Validate rejects settings outside the permitted ranges, including the
// absolute caps.
func (s ChunkSecuritySettings) Validate() error {
	if s.MaxChunkSize <= 0 || s.MaxChunkSize > format.SecurityMaxChunkSizeAbsCap {
		return &errs.OutOfBoundsError{Field: "max_chunk_size", Value: s.MaxChunkSize, Min: 1, Max: format.SecurityMaxChunkSizeAbsCap}
	}
	if s.MaxCompressionRatio <= 0 || s.MaxCompressionRatio > format.SecurityMaxCompressionRatioAbsCap {
		return &errs.OutOfBoundsError{Field: "max_compression_ratio", Value: s.MaxCompressionRatio, Min: 1, Max: format.SecurityMaxCompressionRatioAbsCap}
	}
	if s.MaxEncryptionOverhead < 0 || s.MaxEncryptionOverhead > format.SecurityMaxEncryptionOverheadAbsCap {
		return &errs.OutOfBoundsError{Field: "max_encryption_overhead", Value: s.MaxEncryptionOverhead, Min: 0, Max: format.SecurityMaxEncryptionOverheadAbsCap}
	}

	return nil
}
