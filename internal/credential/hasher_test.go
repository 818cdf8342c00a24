package credential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whoyou/whoyou/internal/credential"
)

func TestDigest_Deterministic(t *testing.T) {
	h := credential.NewHasher("salt123")

	first := h.Digest("secret1")
	second := h.Digest("secret1")

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // 32 bytes hex-encoded
}

func TestDigest_SaltChangesDigest(t *testing.T) {
	a := credential.NewHasher("salt-a")
	b := credential.NewHasher("salt-b")

	assert.NotEqual(t, a.Digest("secret1"), b.Digest("secret1"))
}

func TestVerify_Match(t *testing.T) {
	h := credential.NewHasher("salt123")
	digest := h.Digest("secret1")

	assert.True(t, h.Verify(digest, "secret1"))
}

func TestVerify_Mismatch(t *testing.T) {
	h := credential.NewHasher("salt123")
	digest := h.Digest("secret1")

	assert.False(t, h.Verify(digest, "secret2"))
}

func TestVerify_EmptyDigestNeverMatches(t *testing.T) {
	h := credential.NewHasher("salt123")

	assert.False(t, h.Verify("", "anything"))
	assert.False(t, h.Verify("", ""))
}
