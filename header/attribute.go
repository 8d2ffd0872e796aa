package header

import (
	"encoding/binary"
	"math"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/primitive"
)

// Attribute is a single typed key/value metadata entry on an EntryHeader.
// The wire format always stores a single byte-array value with a
// discriminator tag; the typed accessors below are an ergonomic sum-type
// view on top of that unchanged wire shape.
type Attribute struct {
	Key   string
	Type  format.AttributeType
	Value []byte // raw encoded value bytes
}

// NewStringAttribute builds a STRING-typed attribute.
func NewStringAttribute(key, value string) Attribute {
	return Attribute{Key: key, Type: format.AttributeString, Value: []byte(value)}
}

// NewInt64Attribute builds an INT64-typed attribute.
func NewInt64Attribute(key string, value int64) Attribute {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(value)) //nolint: gosec

	return Attribute{Key: key, Type: format.AttributeInt64, Value: buf}
}

// NewFloat64Attribute builds a FLOAT64-typed attribute.
func NewFloat64Attribute(key string, value float64) Attribute {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(value))

	return Attribute{Key: key, Type: format.AttributeFloat64, Value: buf}
}

// NewBoolAttribute builds a BOOLEAN-typed attribute.
func NewBoolAttribute(key string, value bool) Attribute {
	b := byte(0)
	if value {
		b = 1
	}

	return Attribute{Key: key, Type: format.AttributeBoolean, Value: []byte{b}}
}

// NewBytesAttribute builds a BYTES-typed attribute. value is copied.
func NewBytesAttribute(key string, value []byte) Attribute {
	cp := make([]byte, len(value))
	copy(cp, value)

	return Attribute{Key: key, Type: format.AttributeBytes, Value: cp}
}

// StringValue returns the attribute's value as a string, failing if the
// attribute is not STRING-typed.
func (a Attribute) StringValue() (string, error) {
	if a.Type != format.AttributeString {
		return "", errs.ErrAttributeKindMismatch
	}

	return string(a.Value), nil
}

// Int64Value returns the attribute's value as an int64.
func (a Attribute) Int64Value() (int64, error) {
	if a.Type != format.AttributeInt64 || len(a.Value) != 8 {
		return 0, errs.ErrAttributeKindMismatch
	}

	return int64(binary.LittleEndian.Uint64(a.Value)), nil //nolint: gosec
}

// Float64Value returns the attribute's value as a float64.
func (a Attribute) Float64Value() (float64, error) {
	if a.Type != format.AttributeFloat64 || len(a.Value) != 8 {
		return 0, errs.ErrAttributeKindMismatch
	}

	return math.Float64frombits(binary.LittleEndian.Uint64(a.Value)), nil
}

// BoolValue returns the attribute's value as a bool.
func (a Attribute) BoolValue() (bool, error) {
	if a.Type != format.AttributeBoolean || len(a.Value) != 1 {
		return false, errs.ErrAttributeKindMismatch
	}

	return a.Value[0] != 0, nil
}

// BytesValue returns a copy of the attribute's value bytes, failing if the
// attribute is not BYTES-typed.
func (a Attribute) BytesValue() ([]byte, error) {
	if a.Type != format.AttributeBytes {
		return nil, errs.ErrAttributeKindMismatch
	}

	out := make([]byte, len(a.Value))
	copy(out, a.Value)

	return out, nil
}

func (a Attribute) encode(w *primitive.Writer) {
	w.WriteUint16(uint16(len(a.Key))) //nolint: gosec
	w.WriteUint8(uint8(a.Type))
	w.WriteUint8(0) // reserved
	w.WriteInt32(int32(len(a.Value))) //nolint: gosec
	w.WriteString(a.Key)
	w.WriteBytes(a.Value)
}

func decodeAttribute(r *primitive.Reader) (Attribute, error) {
	keyLen, err := r.ReadUint16()
	if err != nil {
		return Attribute{}, err
	}

	typ, err := r.ReadUint8()
	if err != nil {
		return Attribute{}, err
	}

	if _, err = r.ReadUint8(); err != nil { // reserved
		return Attribute{}, err
	}

	valueLen, err := r.ReadInt32()
	if err != nil {
		return Attribute{}, err
	}
	if valueLen < 0 || valueLen > format.MaxChunkSize {
		return Attribute{}, &errs.OutOfBoundsError{Field: "attribute.value_len", Value: int64(valueLen), Min: 0, Max: format.MaxChunkSize}
	}

	key, err := r.ReadString("attribute.key", int(keyLen), format.MaxEntryNameLen)
	if err != nil {
		return Attribute{}, err
	}

	value, err := r.ReadBounded("attribute.value", int(valueLen), format.MaxChunkSize)
	if err != nil {
		return Attribute{}, err
	}

	return Attribute{Key: key, Type: format.AttributeType(typ), Value: value}, nil
}
