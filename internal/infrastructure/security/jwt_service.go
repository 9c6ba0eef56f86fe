package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
)

// refreshTokenByteLength is the entropy of the opaque refresh token value.
const refreshTokenByteLength = 64

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	Secret         string
	Issuer         string
	Audience       string
	AccessTokenTTL time.Duration
}

// AccessClaims is the claim set carried by access tokens: identity plus the
// authorization context of the user's default organization.
type AccessClaims struct {
	UserID          int64  `json:"user_id"`
	DisplayName     string `json:"display_name"`
	Role            string `json:"role"`
	OrgID           int64  `json:"org_id"`
	OrgName         string `json:"org_name"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
	jwt.RegisteredClaims
}

// JWTService mints and verifies HS256-signed access tokens. Token validity is
// entirely a function of signature and expiry; nothing is persisted.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a JWTService. A missing signing secret is a
// configuration error, surfaced at startup rather than per request.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: JWT signing secret is not configured", domainErrors.ErrConfiguration)
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	return &JWTService{config: cfg}, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.config.AccessTokenTTL
}

// GenerateAccessToken signs a short-lived token for the user in the context of
// the given membership.
func (s *JWTService) GenerateAccessToken(user *models.User, membership *models.OrganizationMembership, isPlatformAdmin bool) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		UserID:          user.ID,
		DisplayName:     user.DisplayName,
		Role:            membership.Role,
		OrgID:           membership.OrgID,
		OrgName:         membership.OrgName,
		IsPlatformAdmin: isPlatformAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.config.Issuer,
		},
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken verifies signature, optional issuer/audience, and expiry
// with zero clock-skew tolerance. An invalid or expired token yields
// ErrUnauthorized, never a panic; only configuration problems are exceptional.
func (s *JWTService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, domainErrors.ErrUnauthorized
	}
	return claims, nil
}

// IsTokenExpired decodes the token without verifying its signature and reports
// whether it has expired. Unparseable input counts as expired. Best-effort
// convenience only; never a substitute for ValidateAccessToken.
func (s *JWTService) IsTokenExpired(tokenString string) bool {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return time.Now().After(claims.ExpiresAt.Time)
}

// GenerateRefreshTokenValue returns a new high-entropy opaque refresh token,
// base64-rendered for transport. The value is returned to the client exactly
// once; the server stores only its hash.
func GenerateRefreshTokenValue() (string, error) {
	b := make([]byte, refreshTokenByteLength)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to read refresh token entropy: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
