// Package compress provides the APACK compression providers: NONE, ZSTD,
// and LZ4, registered by both numeric ID and case-insensitive name.
//
// # Choosing a provider
//
// NONE disables compression entirely and is the right choice for already
// compressed or encrypted payloads. ZSTD favors compression ratio over
// speed and suits archival workloads where writes are infrequent relative
// to reads. LZ4 favors speed, trading some ratio for lower CPU cost per
// chunk, a reasonable default when chunk_size is small and many chunks
// are processed per second.
//
// # Adaptive compression
//
// Per-chunk compression is advisory at the provider level: the chunk
// pipeline (package stream) always compares the compressed length against
// the original length and falls back to storing the original bytes,
// clearing the chunk's COMPRESSED flag, whenever compression did not
// shrink the data. A Provider signals "did not compress" by returning a
// zero-length, non-nil slice from CompressBlock.
package compress
