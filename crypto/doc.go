// Package crypto provides the APACK encryption providers: AES-256-GCM and
// ChaCha20-Poly1305, both AEAD ciphers with a 12-byte nonce and 16-byte
// tag. A fresh nonce is required for every Seal call with the same key;
// the stream package generates one per chunk via crypto.NewNonce and
// prepends it to the chunk's stored bytes so Open can recover it on read.
package crypto
