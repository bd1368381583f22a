// Package hashing provides the pipeline's content and dedup hashing.
// All hashes are 32-byte BLAKE3 digests, hex-encoded. Content identity
// is always established by hash, never by filename or source ids.
package hashing

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// HexLen is the length of a hex-encoded hash string.
const HexLen = 64

// Bytes returns the hex-encoded BLAKE3 digest of data. Used as the
// content store key and as the dedup key for opaque descriptors.
func Bytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// String returns the hex-encoded BLAKE3 digest of the UTF-8 bytes of
// s. Used for record unique hashes over canonicalized lines.
func String(s string) string {
	return Bytes([]byte(s))
}

// Valid reports whether s looks like a hex-encoded hash.
func Valid(s string) bool {
	if len(s) != HexLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
