// Package checksum provides the APACK checksum providers: CRC-32 and
// XXH3-64, registered by numeric ID and case-insensitive name. XXH3-64 is
// the default algorithm (used for both chunk checksums and TOC name
// hashing) because it is substantially faster than CRC-32 at comparable
// collision resistance for the payload sizes APACK chunks typically use.
package checksum
