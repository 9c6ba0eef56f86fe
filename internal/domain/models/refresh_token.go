package models

import "time"

// RefreshToken represents the refresh_tokens table. The raw opaque token is
// returned to the client exactly once at issuance; only its hash is stored.
type RefreshToken struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	TokenHash   string     `json:"-" db:"token_hash"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"` // DB default
	CreatedByIP string     `json:"created_by_ip" db:"created_by_ip"`
}

// IsActive reports whether the record is neither revoked nor expired.
// A record with a non-nil RevokedAt is terminal regardless of expiry.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
