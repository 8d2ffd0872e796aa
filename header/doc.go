// Package header implements the APACK header codec: the immutable value
// types for every on-disk record (FileHeader, EncryptionBlock,
// EntryHeader, Attribute, ChunkHeader, TocEntry, Trailer, StreamTrailer),
// each with a Decode that validates magic bytes, version
// gates, and bounded lengths against the limits in package format, and an
// Encode that serializes the record and computes its CRC-32 in place.
//
// Every record is a plain value type, immutable after construction, with
// one Encode/Decode pattern applied uniformly instead of a bespoke method
// pair per record.
//
// CRC verification is the caller's responsibility except for ChunkHeader,
// where it happens inline as part of the chunk read state machine: Decode
// always returns the header_crc32 field as read; callers that need
// integrity call the record's Verify method explicitly.
package header
