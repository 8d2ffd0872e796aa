// Package stream implements the chunked I/O pipeline every entry's payload
// passes through: checksum, then compress, then
// encrypt on write; the inverse, with verification, on read.
//
// Two conventions are fixed here rather than left to drift per call
// site: the AEAD nonce is prepended to each chunk's stored bytes
// (stored_bytes = nonce || ciphertext || tag), and the chunk_index is
// folded into the AAD alongside any caller-supplied AAD, binding each
// chunk to its position so a reordered or substituted chunk fails
// authentication instead of decrypting silently.
package stream
