package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/repository"
	"github.com/SalahEddine-Ra/TeamFLow/internal/infrastructure/security"
	"github.com/SalahEddine-Ra/TeamFLow/internal/utils/metrics"
)

// TokenRotator is the refresh token lifecycle the orchestrator depends on.
// Implemented by TokenService.
type TokenRotator interface {
	Issue(ctx context.Context, userID int64, originIP string) (string, error)
	ValidateAndRotate(ctx context.Context, rawToken, currentIP string) (string, int64, error)
	Revoke(ctx context.Context, rawToken, currentIP string) (bool, error)
	RevokeAll(ctx context.Context, userID int64) (int64, error)
	RefreshTokenTTL() time.Duration
}

// AuthConfig tunes session orchestration.
type AuthConfig struct {
	// DefaultOrgID is the organization new registrations are enrolled in.
	DefaultOrgID int64

	// DefaultRole is the membership role granted on registration.
	DefaultRole string
}

// AuthService orchestrates full sessions: credential verification, token
// pair assembly, rotation, and logout. It owns the mapping from internal
// failures to the deliberately generic unauthorized error that credential
// probing sees.
type AuthService struct {
	users  repository.UserRepository
	tokens TokenRotator
	jwt    *security.JWTService
	hasher *security.PasswordHasher
	cfg    AuthConfig
	logger *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens TokenRotator,
	jwtService *security.JWTService,
	hasher *security.PasswordHasher,
	cfg AuthConfig,
	logger *zap.Logger,
) *AuthService {
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = "member"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		jwt:    jwtService,
		hasher: hasher,
		cfg:    cfg,
		logger: logger,
	}
}

// Login verifies the credentials and establishes a new session. Every
// credential failure (unknown email, wrong password, deactivated account,
// passwordless account) collapses into the same ErrUnauthorized so the
// response does not reveal which check failed.
func (s *AuthService) Login(ctx context.Context, email, password, originIP string) (*models.SessionResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domainErrors.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive || user.PasswordHash == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, invalidCredentials()
	}

	ok, err := s.hasher.Verify(*user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		s.logger.Info("login rejected", zap.String("ip", originIP))
		return nil, invalidCredentials()
	}

	refreshToken, err := s.tokens.Issue(ctx, user.ID, originIP)
	if err != nil {
		return nil, err
	}

	result, err := s.buildSession(ctx, user, refreshToken)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info("user logged in",
		zap.Int64("user_id", user.ID),
		zap.String("ip", originIP))
	return result, nil
}

// Register creates a user with the given credentials, enrolls them in the
// default organization, and establishes their first session.
func (s *AuthService) Register(ctx context.Context, email, password, displayName, originIP string) (*models.SessionResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	if email == "" || password == "" || displayName == "" {
		return nil, fmt.Errorf("%w: email, password, and display name are required", domainErrors.ErrInvalidInput)
	}
	if s.cfg.DefaultOrgID == 0 {
		return nil, fmt.Errorf("%w: default organization is not configured", domainErrors.ErrConfiguration)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: &passwordHash,
		DisplayName:  displayName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: email is already registered", domainErrors.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	membership := &models.OrganizationMembership{
		OrgID:     s.cfg.DefaultOrgID,
		UserID:    user.ID,
		Role:      s.cfg.DefaultRole,
		IsDefault: true,
	}
	if err := s.users.CreateMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create default membership: %w", err)
	}

	refreshToken, err := s.tokens.Issue(ctx, user.ID, originIP)
	if err != nil {
		return nil, err
	}

	result, err := s.buildSession(ctx, user, refreshToken)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.String("ip", originIP))
	return result, nil
}

// Refresh rotates the presented refresh token and returns a full new session.
// Suspicious-activity rejections pass through unchanged so callers can
// distinguish them from an ordinary invalid token.
func (s *AuthService) Refresh(ctx context.Context, rawToken, currentIP string) (*models.SessionResult, error) {
	newToken, userID, err := s.tokens.ValidateAndRotate(ctx, rawToken, currentIP)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return s.buildSession(ctx, user, newToken)
}

// Logout revokes the presented refresh token. It reports whether a live
// session was actually terminated; revoking an unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, rawToken, currentIP string) (bool, error) {
	return s.tokens.Revoke(ctx, rawToken, currentIP)
}

// LogoutAll terminates every session the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) (int64, error) {
	return s.tokens.RevokeAll(ctx, userID)
}

// buildSession assembles the access token and user summary around an
// already-issued refresh token.
func (s *AuthService) buildSession(ctx context.Context, user *models.User, refreshToken string) (*models.SessionResult, error) {
	membership, err := s.users.GetDefaultMembership(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user has no default organization", domainErrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load default membership: %w", err)
	}

	isAdmin, err := s.users.IsPlatformAdmin(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check platform admin grant: %w", err)
	}

	accessToken, err := s.jwt.GenerateAccessToken(user, membership, isAdmin)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &models.SessionResult{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  now.Add(s.jwt.AccessTokenTTL()),
		RefreshTokenExpiresAt: now.Add(s.tokens.RefreshTokenTTL()),
		User: models.UserInfo{
			ID:              user.ID,
			DisplayName:     user.DisplayName,
			Role:            membership.Role,
			OrgID:           membership.OrgID,
			OrgName:         membership.OrgName,
			IsPlatformAdmin: isAdmin,
		},
	}, nil
}

func invalidCredentials() error {
	return fmt.Errorf("%w: invalid credentials", domainErrors.ErrUnauthorized)
}
