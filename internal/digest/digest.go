// Package digest provides the one-way hash used to verify reset passwords
// without storing them. Stored secrets are lowercase hex SHA-256 digests.
package digest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash returns the lowercase hex SHA-256 digest of the input.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether password hashes to the given digest. The
// comparison is constant time.
func Verify(password, d string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(password)), []byte(d)) == 1
}
