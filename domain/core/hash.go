package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Fingerprint identifies a run's inputs well enough to replay it:
// the seed plus a stable rendering of the configuration values.
func Fingerprint(seed int64, parts ...string) Hash {
	var data strings.Builder
	data.WriteString(fmt.Sprintf("seed=%d", seed))
	for _, p := range parts {
		data.WriteString("|")
		data.WriteString(p)
	}
	return NewHash([]byte(data.String()))
}
