package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data. Document and tree hashes
// across the module are produced here, so two hashes of the same bytes
// always compare equal regardless of where they were computed.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced cache key from a prefix and the hashed,
// JSON-encoded parts. The full 256-bit digest keeps keys derived from
// different documents or option sets from colliding.
func hashKey(prefix string, parts ...any) string {
	payload, _ := json.Marshal(parts)
	sum := sha256.Sum256(payload)
	return prefix + ":" + hex.EncodeToString(sum[:])
}
