package header

import (
	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

// EncryptionBlock transports the opaque key-wrap artifact produced by an
// external password-based KDF collaborator. The codec never computes a
// KDF or unwraps a key itself; it only serializes/deserializes the blob.
type EncryptionBlock struct {
	KDFID           uint8
	CipherID        uint8
	WrapAlgorithmID uint8 // reserved; 0 unless set explicitly
	KDFIterations   int32
	KDFMemoryKB     int32
	KDFParallelism  int32
	Salt            []byte
	WrappedKey      []byte // includes the AEAD tag or embedded ICV, per UnwrapHint
}

// UnwrapHint reports how WrappedKey's trailing bytes should be
// interpreted, by the length-based rule existing archives were written
// with: wrapped-key lengths of 24, 32, or 40 bytes are
// treated as AES-Key-Wrap output with an embedded ICV (no separate tag to
// split); any other length splits the last 16 bytes off as a standalone
// AEAD tag.
func (b EncryptionBlock) UnwrapHint() (embeddedICV bool) {
	switch len(b.WrappedKey) {
	case 24, 32, 40:
		return true
	default:
		return false
	}
}

// Encode serializes the block, padded to an 8-byte boundary.
func (b EncryptionBlock) Encode() []byte {
	w := primitive.NewWriter()
	w.WriteBytes([]byte(format.MagicEncryption))
	w.WriteUint8(b.KDFID)
	w.WriteUint8(b.CipherID)
	w.WriteUint8(b.WrapAlgorithmID)
	w.WriteUint8(0) // reserved
	w.WriteInt32(b.KDFIterations)
	w.WriteInt32(b.KDFMemoryKB)
	w.WriteInt32(b.KDFParallelism)
	w.WriteUint16(uint16(len(b.Salt)))       //nolint: gosec
	w.WriteUint16(uint16(len(b.WrappedKey))) //nolint: gosec
	w.WriteBytes(b.Salt)
	w.WriteBytes(b.WrappedKey)
	w.PadToAlignment(format.RecordAlignment)

	return w.Bytes()
}

// DecodeEncryptionBlock reads and validates an EncryptionBlock from r,
// including the padding emitted by Encode.
func DecodeEncryptionBlock(r *primitive.Reader) (EncryptionBlock, error) {
	start := r.Pos()

	magic, err := r.ReadBounded("magic", len(format.MagicEncryption), len(format.MagicEncryption))
	if err != nil {
		return EncryptionBlock{}, err
	}
	if string(magic) != format.MagicEncryption {
		return EncryptionBlock{}, &errs.InvalidFormatError{Offset: start, Expected: format.MagicEncryption, Observed: string(magic)}
	}

	var b EncryptionBlock
	if b.KDFID, err = r.ReadUint8(); err != nil {
		return EncryptionBlock{}, err
	}
	if b.CipherID, err = r.ReadUint8(); err != nil {
		return EncryptionBlock{}, err
	}
	if b.WrapAlgorithmID, err = r.ReadUint8(); err != nil {
		return EncryptionBlock{}, err
	}
	if _, err = r.ReadUint8(); err != nil { // reserved
		return EncryptionBlock{}, err
	}
	if b.KDFIterations, err = r.ReadInt32(); err != nil {
		return EncryptionBlock{}, err
	}
	if b.KDFMemoryKB, err = r.ReadInt32(); err != nil {
		return EncryptionBlock{}, err
	}
	if b.KDFParallelism, err = r.ReadInt32(); err != nil {
		return EncryptionBlock{}, err
	}

	saltLen, err := r.ReadUint16()
	if err != nil {
		return EncryptionBlock{}, err
	}
	if saltLen > format.MaxSaltLen {
		return EncryptionBlock{}, &errs.OutOfBoundsError{Field: "salt_len", Value: int64(saltLen), Min: 0, Max: format.MaxSaltLen}
	}

	wrappedKeyLen, err := r.ReadUint16()
	if err != nil {
		return EncryptionBlock{}, err
	}
	if wrappedKeyLen < format.MinWrappedKeyLen {
		return EncryptionBlock{}, &errs.OutOfBoundsError{Field: "wrapped_key_total_len", Value: int64(wrappedKeyLen), Min: format.MinWrappedKeyLen, Max: 1 << 16}
	}

	if b.Salt, err = r.ReadBounded("salt", int(saltLen), format.MaxSaltLen); err != nil {
		return EncryptionBlock{}, err
	}
	if b.WrappedKey, err = r.ReadBounded("wrapped_key", int(wrappedKeyLen), 1<<16); err != nil {
		return EncryptionBlock{}, err
	}

	if err := r.SkipToAlignment(format.RecordAlignment); err != nil {
		return EncryptionBlock{}, err
	}

	return b, nil
}
