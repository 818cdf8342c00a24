// Package credential implements the one-way password digest used by the
// accounts directory. The digest is deterministic for a given salt, so the
// stored value can be compared directly against a freshly computed one.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 4096
	keyLength  = 32
)

// Hasher derives password digests with a fixed site-wide salt.
type Hasher struct {
	salt []byte
}

// NewHasher creates a Hasher using the given salt.
func NewHasher(salt string) *Hasher {
	return &Hasher{salt: []byte(salt)}
}

// Digest returns the hex-encoded digest of a clear-text password.
func (h *Hasher) Digest(password string) string {
	key := pbkdf2.Key([]byte(password), h.salt, iterations, keyLength, sha256.New)
	return hex.EncodeToString(key)
}

// Verify reports whether the clear-text password matches the stored digest.
// An empty stored digest never matches.
func (h *Hasher) Verify(digest, password string) bool {
	if digest == "" {
		return false
	}
	computed := h.Digest(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
