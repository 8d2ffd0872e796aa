// Package primitive implements the binary primitives every APACK record is
// built from: little-endian fixed-width integer reads/writes,
// bounded byte and UTF-8 string reads, and power-of-two alignment padding.
//
// The repeated "read N bytes, check the length, advance a position
// counter" bookkeeping is factored into a reusable Reader/Writer pair
// instead of being duplicated in every record's Decode method.
package primitive

import (
	"io"

	"github.com/apack-io/apack/endian"
	"github.com/apack-io/apack/errs"
)

// Reader reads little-endian primitives from an io.Reader while tracking
// the number of bytes consumed, so callers can skip to an alignment
// boundary or report an absolute offset in an error.
type Reader struct {
	r   io.Reader
	pos int64
}

// NewReader wraps r for primitive reads starting at position 0. If the
// stream being read does not start at the beginning of the underlying
// file, callers should track the base offset themselves and add it to
// Pos() when reporting errors.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int64 { return r.pos }

// ReadFull reads exactly len(buf) bytes, failing with TruncatedInputError
// on a short read.
func (r *Reader) ReadFull(buf []byte) error {
	n, err := io.ReadFull(r.r, buf)
	r.pos += int64(n)
	if err != nil {
		return &errs.TruncatedInputError{ExpectedLen: len(buf), Remaining: n}
	}

	return nil
}

// ReadBounded reads a byte slice of the given length, failing with
// OutOfBoundsError *before* allocating if length exceeds maxLen. This is
// the primitive that makes decompression-bomb and oversized-length attacks
// fail before any allocation happens.
func (r *Reader) ReadBounded(field string, length int, maxLen int) ([]byte, error) {
	if length < 0 || length > maxLen {
		return nil, &errs.OutOfBoundsError{Field: field, Value: int64(length), Min: 0, Max: int64(maxLen)}
	}

	buf := make([]byte, length)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// ReadString reads a UTF-8 string of the given byte length.
func (r *Reader) ReadString(field string, length int, maxLen int) (string, error) {
	b, err := r.ReadBounded(field, length, maxLen)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	var buf [1]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}

	return buf[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	var buf [2]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}

	return endian.LittleEndian.Uint16(buf[:]), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err //nolint: gosec
}

func (r *Reader) ReadUint32() (uint32, error) {
	var buf [4]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}

	return endian.LittleEndian.Uint32(buf[:]), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err //nolint: gosec
}

func (r *Reader) ReadUint64() (uint64, error) {
	var buf [8]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}

	return endian.LittleEndian.Uint64(buf[:]), nil
}

// Skip discards n bytes without interpreting them.
func (r *Reader) Skip(n int) error {
	if n <= 0 {
		return nil
	}

	_, err := io.CopyN(io.Discard, r.r, int64(n))
	r.pos += int64(n)
	if err != nil {
		return &errs.TruncatedInputError{ExpectedLen: n, Remaining: 0}
	}

	return nil
}

// SkipToAlignment discards bytes until Pos() is a multiple of align, which
// must be a power of two.
func (r *Reader) SkipToAlignment(align int) error {
	pad := padLen(r.pos, align)
	return r.Skip(pad)
}

// Writer mirrors Reader: it emits little-endian primitives into a
// growable byte buffer and tracks the write position so alignment padding
// can be emitted with zero bytes, matching what Reader consumes.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// NewWriterSize creates a Writer with a pre-sized backing buffer.
func NewWriterSize(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the accumulated buffer. The returned slice aliases the
// writer's internal storage and must be copied by the caller if retained
// past the writer's lifetime.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteUint16(v uint16) {
	w.buf = endian.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v)) //nolint: gosec
}

func (w *Writer) WriteUint32(v uint32) {
	w.buf = endian.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v)) //nolint: gosec
}

func (w *Writer) WriteUint64(v uint64) {
	w.buf = endian.LittleEndian.AppendUint64(w.buf, v)
}

// WriteBytes appends raw bytes verbatim (e.g. a magic, an already-encoded string).
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteString appends a UTF-8 string's bytes verbatim, no length prefix
// (callers write the length field themselves, since its width varies by record).
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

// PadToAlignment appends zero bytes until Len() is a multiple of align.
func (w *Writer) PadToAlignment(align int) {
	pad := padLen(int64(len(w.buf)), align)
	for i := 0; i < pad; i++ {
		w.buf = append(w.buf, 0)
	}
}

// padLen returns the number of padding bytes needed to bring pos up to
// the next multiple of align, which must be a power of two.
func padLen(pos int64, align int) int {
	if align <= 1 {
		return 0
	}

	rem := pos & int64(align-1)
	if rem == 0 {
		return 0
	}

	return align - int(rem)
}

// PutUint32 and Uint32 are small free functions for callers that already
// hold a fixed-size slice (e.g. computing a CRC over a header region) and
// don't want to allocate a Writer for a single field.
func PutUint32(b []byte, v uint32) { endian.LittleEndian.PutUint32(b, v) }
func Uint32(b []byte) uint32       { return endian.LittleEndian.Uint32(b) }
