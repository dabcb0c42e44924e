package images

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns a deterministic content hash for an encoded payload.
//
// Example:
//
//	key := "predict:" + Checksum(upload)
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
