package models

import "time"

// UserInfo is the user summary returned alongside a token pair.
type UserInfo struct {
	ID              int64  `json:"id"`
	DisplayName     string `json:"display_name"`
	Role            string `json:"role"`
	OrgID           int64  `json:"org_id"`
	OrgName         string `json:"org_name"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
}

// SessionResult is the outcome of a successful login, registration, or
// refresh: a fresh access/refresh pair plus the user summary.
type SessionResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	User                  UserInfo  `json:"user"`
}
