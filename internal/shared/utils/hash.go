package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short content hash used to tell whether a plugin
// source changed between loads
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
