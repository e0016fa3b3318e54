// Package checksum fingerprints article bodies so re-indexing can skip
// unchanged text.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Text hashes a body after normalising CRLF line endings, so the same
// article served by different hosts fingerprints identically.
func Text(body string) string {
	return Sum([]byte(strings.ReplaceAll(body, "\r\n", "\n")))
}
