package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
)

func testJWTService(t *testing.T, cfg JWTConfig) *JWTService {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = "unit-test-signing-secret"
	}
	svc, err := NewJWTService(cfg)
	require.NoError(t, err)
	return svc
}

func testClaimsInput() (*models.User, *models.OrganizationMembership) {
	user := &models.User{ID: 1, Email: "user@example.com", DisplayName: "Test User", IsActive: true}
	membership := &models.OrganizationMembership{OrgID: 100, OrgName: "Acme", UserID: 1, Role: "admin", IsDefault: true}
	return user, membership
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})

	assert.ErrorIs(t, err, domainErrors.ErrConfiguration)
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := testJWTService(t, JWTConfig{Issuer: "teamflow-auth", Audience: "teamflow", AccessTokenTTL: 15 * time.Minute})
	user, membership := testClaimsInput()

	signed, err := svc.GenerateAccessToken(user, membership, true)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "Test User", claims.DisplayName)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, int64(100), claims.OrgID)
	assert.Equal(t, "Acme", claims.OrgName)
	assert.True(t, claims.IsPlatformAdmin)
	assert.Equal(t, "teamflow-auth", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	svc := testJWTService(t, JWTConfig{})
	other := testJWTService(t, JWTConfig{Secret: "a-different-secret"})
	user, membership := testClaimsInput()

	signed, err := other.GenerateAccessToken(user, membership, false)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := testJWTService(t, JWTConfig{})

	claims := &AccessClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("unit-test-signing-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)
	assert.True(t, svc.IsTokenExpired(signed))
}

func TestValidateAccessToken_RejectsUnsignedAlgorithm(t *testing.T) {
	svc := testJWTService(t, JWTConfig{})

	claims := &AccessClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	issuing := testJWTService(t, JWTConfig{Issuer: "somebody-else"})
	validating := testJWTService(t, JWTConfig{Issuer: "teamflow-auth"})
	user, membership := testClaimsInput()

	signed, err := issuing.GenerateAccessToken(user, membership, false)
	require.NoError(t, err)

	_, err = validating.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := testJWTService(t, JWTConfig{})

	_, err := svc.ValidateAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)

	assert.True(t, svc.IsTokenExpired("not.a.jwt"))
}

func TestIsTokenExpired_FreshToken(t *testing.T) {
	svc := testJWTService(t, JWTConfig{})
	user, membership := testClaimsInput()

	signed, err := svc.GenerateAccessToken(user, membership, false)
	require.NoError(t, err)

	assert.False(t, svc.IsTokenExpired(signed))
}
