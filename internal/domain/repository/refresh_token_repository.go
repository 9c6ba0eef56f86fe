package repository

import (
	"context"

	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
)

// RefreshTokenRepository defines persistence for refresh token records.
// Raw tokens cannot be looked up by equality (only the bcrypt hash is stored),
// so validation scans a bounded, recency-ordered candidate set and verifies
// each hash in memory.
type RefreshTokenRepository interface {
	// Create persists a new refresh token record. CreatedAt is set by the
	// database.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindRecentActive returns up to limit non-revoked, non-expired records
	// belonging to active users, most recently created first.
	FindRecentActive(ctx context.Context, limit int) ([]*models.RefreshToken, error)

	// FindLatestByUserID returns the most recently created record for the
	// user regardless of revocation state, or ErrNotFound if the user has
	// never been issued a token. The anomaly detector uses it as the prior
	// session origin.
	FindLatestByUserID(ctx context.Context, userID int64) (*models.RefreshToken, error)

	// Revoke sets revoked_at on an active record. Returns ErrNotFound when
	// the record does not exist or is already revoked; the conditional
	// update is what makes rotation one-shot under concurrency.
	Revoke(ctx context.Context, id int64) error

	// RevokeAllForUser revokes every active record for the user and returns
	// how many were affected. Zero is not an error.
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)

	// DeleteExpired removes records whose expiry has passed, regardless of
	// revocation state, and returns the number deleted. Idempotent.
	DeleteExpired(ctx context.Context) (int64, error)
}
