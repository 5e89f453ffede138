package passwords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashVerify(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("Str0ng!Passw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Passw0rd", hash)

	ok, err := h.Verify(hash, "Str0ng!Passw0rd")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := h.Verify("not-a-hash", "x")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestHasher_DummyVerifyDoesNotPanic(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	h.DummyVerify("anything")
}

func TestNewHasher_InvalidCost(t *testing.T) {
	_, err := NewHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestHasher_OverlongPassword(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	long := strings.Repeat("x", MaxBytes+1)
	_, err = h.Hash(long)
	assert.Error(t, err)

	hash, err := h.Hash(long[:MaxBytes])
	require.NoError(t, err)
	ok, err := h.Verify(hash, long)
	require.NoError(t, err)
	assert.False(t, ok)

	h.DummyVerify(long)
}
