// Package endian provides the byte-order engine used across the APACK wire
// format.
//
// APACK fixes little-endian as the only wire byte order, so this
// package is a thin, single-purpose wrapper around encoding/binary rather
// than a general byte-order abstraction: it exists so the rest of the
// codebase can depend on an EndianEngine interface value instead of
// importing encoding/binary directly everywhere.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface. binary.LittleEndian satisfies it directly.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// LittleEndian is the engine used for every APACK record. All multi-byte
// integers in the archive format are little-endian.
var LittleEndian EndianEngine = binary.LittleEndian
