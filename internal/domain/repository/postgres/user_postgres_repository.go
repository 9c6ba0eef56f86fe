package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/repository"
)

// UserRepositoryPostgres implements repository.UserRepository.
type UserRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewUserRepositoryPostgres creates a new UserRepositoryPostgres.
func NewUserRepositoryPostgres(pool *pgxpool.Pool) *UserRepositoryPostgres {
	return &UserRepositoryPostgres{pool: pool}
}

// GetByID retrieves a user by primary key.
func (r *UserRepositoryPostgres) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, display_name, is_active, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(db(ctx, r.pool).QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email. Emails are stored lower-cased, so the
// argument is folded before matching.
func (r *UserRepositoryPostgres) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, display_name, is_active, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(db(ctx, r.pool).QueryRow(ctx, query, strings.ToLower(email)))
}

// Create persists a new user, lower-casing the email.
func (r *UserRepositoryPostgres) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, display_name, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := db(ctx, r.pool).QueryRow(ctx, query,
		strings.ToLower(user.Email), user.PasswordHash, user.DisplayName, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domainErrors.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetDefaultMembership returns the membership flagged as default for the
// user, joined with the organization for its name.
func (r *UserRepositoryPostgres) GetDefaultMembership(ctx context.Context, userID int64) (*models.OrganizationMembership, error) {
	query := `
		SELECT ou.id, ou.org_id, o.name, ou.user_id, ou.role, ou.is_default, ou.created_at
		FROM organization_users ou
		JOIN organizations o ON o.id = ou.org_id
		WHERE ou.user_id = $1 AND ou.is_default
		LIMIT 1
	`
	m := &models.OrganizationMembership{}
	err := db(ctx, r.pool).QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.OrgID, &m.OrgName, &m.UserID, &m.Role, &m.IsDefault, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find default membership: %w", err)
	}
	return m, nil
}

// CreateMembership persists an organization membership.
func (r *UserRepositoryPostgres) CreateMembership(ctx context.Context, m *models.OrganizationMembership) error {
	query := `
		INSERT INTO organization_users (org_id, user_id, role, is_default)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := db(ctx, r.pool).QueryRow(ctx, query, m.OrgID, m.UserID, m.Role, m.IsDefault).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// IsPlatformAdmin reports whether the user holds an unrevoked admin grant.
func (r *UserRepositoryPostgres) IsPlatformAdmin(ctx context.Context, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM platform_admins
			WHERE user_id = $1 AND revoked_at IS NULL
		)
	`
	var isAdmin bool
	if err := db(ctx, r.pool).QueryRow(ctx, query, userID).Scan(&isAdmin); err != nil {
		return false, fmt.Errorf("failed to check platform admin grant: %w", err)
	}
	return isAdmin, nil
}

func (r *UserRepositoryPostgres) scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepositoryPostgres)(nil)
