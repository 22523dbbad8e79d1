// Package idgen provides cryptographically random ID generation.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

const randomBytes = 12

// WithPrefix returns prefix followed by 24 hex characters of randomness,
// e.g. WithPrefix("req_") -> "req_3f9c...". crypto/rand failing means the
// process cannot do anything useful, so it panics rather than degrading to
// guessable IDs.
func WithPrefix(prefix string) string {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		panic("idgen: crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}
