package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
)

func TestHash_ProducesUniqueSaltedHashes(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("s3cret")
	require.NoError(t, err)
	second, err := h.Hash("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "s3cret")
}

func TestVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cret")
	require.NoError(t, err)

	ok, err := h.Verify(hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_MalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Verify("not-a-bcrypt-hash", "s3cret")

	assert.Error(t, err)
}

func TestHash_EmptyPassword(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Hash("")

	assert.ErrorIs(t, err, domainErrors.ErrInvalidInput)
}

func TestNewPasswordHasher_CostOutOfRange(t *testing.T) {
	h := NewPasswordHasher(99)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestHashToken_HandlesLongTokenValues(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	raw, err := GenerateRefreshTokenValue()
	require.NoError(t, err)
	require.Greater(t, len(raw), 72, "token must exceed bcrypt's direct input limit")

	hash, err := h.HashToken(raw)
	require.NoError(t, err)

	ok, err := h.VerifyToken(hash, raw)
	require.NoError(t, err)
	assert.True(t, ok)

	// bcrypt truncates raw input at 72 bytes; pre-digesting means bytes
	// beyond that limit still matter.
	tampered := raw[:len(raw)-4] + "AAAA"
	require.Equal(t, raw[:72], tampered[:72])
	ok, err = h.VerifyToken(hash, tampered)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateRefreshTokenValue(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		raw, err := GenerateRefreshTokenValue()
		require.NoError(t, err)
		assert.Len(t, raw, 88)
		assert.False(t, strings.ContainsAny(raw, " \n\t"))
		_, dup := seen[raw]
		assert.False(t, dup)
		seen[raw] = struct{}{}
	}
}
