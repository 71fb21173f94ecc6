// Package checksum fingerprints file content so the inbox can recognise
// files it has already imported.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortLen is the length of a Short fingerprint.
const ShortLen = 8

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short returns the first ShortLen characters of sum, or sum itself when it
// is shorter.
func Short(sum string) string {
	if len(sum) > ShortLen {
		return sum[:ShortLen]
	}
	return sum
}
