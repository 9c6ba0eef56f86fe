package models

import "time"

// User represents the users table. The token core treats users as read-only
// except during registration, which sets the password hash.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"` // stored lower-cased, unique
	PasswordHash *string   `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// OrganizationMembership ties a user to an organization with a role. At most
// one membership per user carries IsDefault; the orchestrator relies on that
// when populating access-token claims.
type OrganizationMembership struct {
	ID        int64     `json:"id" db:"id"`
	OrgID     int64     `json:"org_id" db:"org_id"`
	OrgName   string    `json:"org_name" db:"org_name"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
