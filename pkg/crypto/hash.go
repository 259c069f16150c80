package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex returns the hex-encoded SHA-256 digest of the input string.
// Used to derive cache keys from bearer tokens so raw credentials never
// appear in Redis keys.
func Sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
