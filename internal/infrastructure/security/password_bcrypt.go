package security

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
)

// PasswordHasher produces and verifies salted bcrypt hashes. The same
// primitive hashes opaque refresh tokens at rest; tokens are pre-digested
// with SHA-256 because bcrypt only consumes the first 72 bytes of input and
// the base64-rendered token value is longer than that.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given bcrypt cost. Costs outside
// bcrypt's supported range fall back to the package default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of the password. Two calls with the same
// input produce different hashes.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", domainErrors.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether the password matches the stored hash. The comparison
// is constant-time by primitive.
func (h *PasswordHasher) Verify(hash, password string) (bool, error) {
	if hash == "" || password == "" {
		return false, fmt.Errorf("%w: hash and password are required", domainErrors.ErrInvalidInput)
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return true, nil
}

// HashToken hashes an opaque refresh token for storage.
func (h *PasswordHasher) HashToken(rawToken string) (string, error) {
	if rawToken == "" {
		return "", fmt.Errorf("%w: token is empty", domainErrors.ErrInvalidInput)
	}
	return h.Hash(digestToken(rawToken))
}

// VerifyToken reports whether the raw token matches the stored hash.
func (h *PasswordHasher) VerifyToken(hash, rawToken string) (bool, error) {
	if hash == "" || rawToken == "" {
		return false, fmt.Errorf("%w: hash and token are required", domainErrors.ErrInvalidInput)
	}
	return h.Verify(hash, digestToken(rawToken))
}

// digestToken folds an arbitrary-length token into bcrypt's input limit.
func digestToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return base64.RawStdEncoding.EncodeToString(sum[:])
}
