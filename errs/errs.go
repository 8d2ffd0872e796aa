// Package errs holds the error values and structured error types surfaced
// by every APACK package.
//
// Simple, fieldless conditions are package-level sentinels so callers can
// compare with errors.Is. Conditions that must carry diagnostic fields
// (an offset, an expected/actual checksum, a bound that was exceeded) are
// small value types that implement error and are compared with errors.As.
// Nothing in APACK is swallowed: every error kind in this package reaches
// the caller the way it was raised.
package errs

import "fmt"

// Sentinel errors for conditions that carry no useful extra fields.
var (
	ErrInvalidHeaderSize     = fmt.Errorf("apack: invalid header size")
	ErrInvalidIndexEntrySize = fmt.Errorf("apack: invalid TOC entry size")
	ErrShortSource            = fmt.Errorf("apack: source does not support seeking")
	ErrUnfinalizedWriter      = fmt.Errorf("apack: writer dropped before finish")
	ErrStreamModeSingleEntry  = fmt.Errorf("apack: stream-mode archives support only one entry")
	ErrAttributeKindMismatch  = fmt.Errorf("apack: attribute value type mismatch")
	ErrNoEncryptionConfigured = fmt.Errorf("apack: archive is encrypted but no key was supplied")
	ErrChunkIndexMismatch     = fmt.Errorf("apack: chunk index out of sequence")
	ErrMissingLastChunk       = fmt.Errorf("apack: entry data ended without a LAST chunk")
	ErrWriterFinished         = fmt.Errorf("apack: writer already finished, no further entries accepted")
)

// InvalidFormatError reports a magic-byte or structural validation failure.
type InvalidFormatError struct {
	Offset   int64
	Expected string
	Observed string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("apack: invalid format at offset %d: expected %q, observed %q", e.Offset, e.Expected, e.Observed)
}

// UnsupportedVersionError reports a compat_level the reader cannot handle.
type UnsupportedVersionError struct {
	RequiredVersion uint16
	ReaderVersion   uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("apack: unsupported compat level %d, reader supports up to %d", e.RequiredVersion, e.ReaderVersion)
}

// TruncatedInputError reports a short read from the underlying source.
type TruncatedInputError struct {
	ExpectedLen int
	Remaining   int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("apack: truncated input: expected %d bytes, %d remaining", e.ExpectedLen, e.Remaining)
}

// OutOfBoundsError reports a bounded field that fell outside its allowed range.
type OutOfBoundsError struct {
	Field string
	Value int64
	Min   int64
	Max   int64
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("apack: field %q value %d out of bounds [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

// ChecksumMismatchError reports a checksum verification failure at a chunk
// or structural boundary.
type ChecksumMismatchError struct {
	Expected   uint32
	Actual     uint32
	ChunkIndex int32
	Context    string // e.g. "chunk", "header", "toc", "trailer"
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("apack: checksum mismatch in %s (chunk %d): expected %08x, actual %08x",
		e.Context, e.ChunkIndex, e.Expected, e.Actual)
}

// IntegrityError reports an AEAD authentication failure. It is
// deliberately not distinguished from arbitrary ciphertext corruption,
// to avoid giving a caller a side channel into why decryption failed.
type IntegrityError struct {
	Algorithm string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("apack: integrity check failed (%s)", e.Algorithm)
}

// DecompressionFailedError reports a decompression provider failure.
type DecompressionFailedError struct {
	Algorithm string
	Detail    string
}

func (e *DecompressionFailedError) Error() string {
	return fmt.Sprintf("apack: decompression failed (%s): %s", e.Algorithm, e.Detail)
}

// EntryNotFoundError reports a failed lookup by name or ID.
type EntryNotFoundError struct {
	Name string
	ID   int64
	ByID bool
}

func (e *EntryNotFoundError) Error() string {
	if e.ByID {
		return fmt.Sprintf("apack: entry not found: id %d", e.ID)
	}

	return fmt.Sprintf("apack: entry not found: name %q", e.Name)
}
