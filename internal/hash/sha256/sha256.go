// Package sha256 computes checksums of written artifacts.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher returns hex-encoded SHA-256 digests.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Sum returns the lowercase hex digest of data.
func (*Hasher) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
