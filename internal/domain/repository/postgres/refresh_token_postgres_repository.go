package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/repository"
)

// RefreshTokenRepositoryPostgres implements repository.RefreshTokenRepository.
type RefreshTokenRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepositoryPostgres creates a new RefreshTokenRepositoryPostgres.
func NewRefreshTokenRepositoryPostgres(pool *pgxpool.Pool) *RefreshTokenRepositoryPostgres {
	return &RefreshTokenRepositoryPostgres{pool: pool}
}

// Create persists a new refresh token record.
func (r *RefreshTokenRepositoryPostgres) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_by_ip)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := db(ctx, r.pool).QueryRow(ctx, query,
		token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedByIP,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// FindRecentActive returns the most recently created non-revoked, non-expired
// records belonging to active users. The limit caps the candidate set the
// service bcrypt-verifies in memory.
func (r *RefreshTokenRepositoryPostgres) FindRecentActive(ctx context.Context, limit int) ([]*models.RefreshToken, error) {
	query := `
		SELECT rt.id, rt.user_id, rt.token_hash, rt.expires_at, rt.revoked_at, rt.created_at, rt.created_by_ip
		FROM refresh_tokens rt
		JOIN users u ON u.id = rt.user_id
		WHERE rt.revoked_at IS NULL AND rt.expires_at > NOW() AND u.is_active
		ORDER BY rt.created_at DESC
		LIMIT $1
	`
	rows, err := db(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent active refresh tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.RefreshToken
	for rows.Next() {
		rt := &models.RefreshToken{}
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.RevokedAt, &rt.CreatedAt, &rt.CreatedByIP); err != nil {
			return nil, fmt.Errorf("failed to scan refresh token row: %w", err)
		}
		tokens = append(tokens, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read refresh token rows: %w", err)
	}
	return tokens, nil
}

// FindLatestByUserID returns the most recently created record for the user,
// revoked or not. The anomaly detector treats it as the prior session origin.
func (r *RefreshTokenRepositoryPostgres) FindLatestByUserID(ctx context.Context, userID int64) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at, created_by_ip
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	rt := &models.RefreshToken{}
	err := db(ctx, r.pool).QueryRow(ctx, query, userID).Scan(
		&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.RevokedAt, &rt.CreatedAt, &rt.CreatedByIP,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest refresh token for user: %w", err)
	}
	return rt, nil
}

// Revoke marks an active record as revoked. The revoked_at IS NULL guard makes
// the transition one-shot: a concurrent revoke of the same record observes
// zero affected rows and gets ErrNotFound.
func (r *RefreshTokenRepositoryPostgres) Revoke(ctx context.Context, id int64) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND revoked_at IS NULL
	`
	result, err := db(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// RevokeAllForUser revokes every active record for the user.
func (r *RefreshTokenRepositoryPostgres) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	result, err := db(ctx, r.pool).Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens for user: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired hard-deletes records past their expiry, revoked or not.
func (r *RefreshTokenRepositoryPostgres) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at <= NOW()`
	result, err := db(ctx, r.pool).Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ repository.RefreshTokenRepository = (*RefreshTokenRepositoryPostgres)(nil)
