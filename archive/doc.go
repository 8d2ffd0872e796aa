// Package archive implements the APACK archive Reader and Writer: opening
// an archive, resolving entries by ID or name, and writing a new archive
// in a single forward pass.
//
// The Writer always needs an io.Writer, and additionally an io.Seeker when
// writing a random-access (multi-entry, TOC-indexed) archive, since entry
// headers and the file header are reserved with placeholder sizes and
// back-patched once the real sizes are known. A stream-mode archive never
// seeks: it buffers one entry's chunk stream in
// memory until its final sizes are known, then writes the entry header and
// buffered chunks in one pass, closing with a StreamTrailer instead of a
// Trailer+TOC, which is also why stream mode is limited to a single
// entry.
package archive
