package repository

import (
	"context"

	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
)

// UserRepository exposes the user, membership, and admin-grant lookups the
// token core consumes. User rows are owned by the wider application; the token
// core only creates them during registration.
type UserRepository interface {
	// GetByID returns the user or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail returns the user matching the lower-cased email, or
	// ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create persists a new user and fills in the generated ID.
	// Returns ErrAlreadyExists on a duplicate email.
	Create(ctx context.Context, user *models.User) error

	// GetDefaultMembership returns the membership flagged as default for the
	// user, including the organization name, or ErrNotFound.
	GetDefaultMembership(ctx context.Context, userID int64) (*models.OrganizationMembership, error)

	// CreateMembership persists a new organization membership.
	CreateMembership(ctx context.Context, m *models.OrganizationMembership) error

	// IsPlatformAdmin reports whether the user holds an unrevoked platform
	// admin grant.
	IsPlatformAdmin(ctx context.Context, userID int64) (bool, error)
}
