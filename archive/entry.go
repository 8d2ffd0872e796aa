package archive

import "github.com/apack-io/apack/header"

// PackEntry is an immutable view of one archived entry: its header plus
// the absolute offset of the first byte following it, where its chunk
// stream begins.
type PackEntry struct {
	Header header.EntryHeader

	dataOffset int64
}

// DataOffset returns the absolute file offset where this entry's chunk
// stream begins.
func (e PackEntry) DataOffset() int64 { return e.dataOffset }
