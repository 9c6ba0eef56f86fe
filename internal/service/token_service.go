package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/repository"
	"github.com/SalahEddine-Ra/TeamFLow/internal/events"
	"github.com/SalahEddine-Ra/TeamFLow/internal/infrastructure/geoip"
	"github.com/SalahEddine-Ra/TeamFLow/internal/infrastructure/security"
	"github.com/SalahEddine-Ra/TeamFLow/internal/utils/metrics"
)

const (
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultCandidateWindow = 10
)

// TransactionManager runs fn atomically; repository calls made with the ctx
// it passes join the same transaction.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AnomalyDetector flags session continuations from implausible origins.
type AnomalyDetector interface {
	Assess(ctx context.Context, userID int64, currentIP string) (bool, string)
}

// TokenConfig tunes issuance and validation of refresh tokens.
type TokenConfig struct {
	// RefreshTokenTTL is the lifetime of a newly issued refresh token.
	RefreshTokenTTL time.Duration

	// CandidateWindow bounds how many recent active records are scanned
	// when matching a presented token against stored hashes.
	CandidateWindow int

	// AllowPrivateIPs permits RFC1918/loopback origins, for development.
	AllowPrivateIPs bool
}

// TokenService owns the refresh token lifecycle: issuance, one-shot rotation
// with replay and theft detection, single and mass revocation, and expiry
// cleanup.
type TokenService struct {
	tokens    repository.RefreshTokenRepository
	users     repository.UserRepository
	hasher    *security.PasswordHasher
	anomaly   AnomalyDetector
	tx        TransactionManager
	publisher events.Publisher
	cfg       TokenConfig
	logger    *zap.Logger
}

func NewTokenService(
	tokens repository.RefreshTokenRepository,
	users repository.UserRepository,
	hasher *security.PasswordHasher,
	anomaly AnomalyDetector,
	tx TransactionManager,
	publisher events.Publisher,
	cfg TokenConfig,
	logger *zap.Logger,
) *TokenService {
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if cfg.CandidateWindow <= 0 {
		cfg.CandidateWindow = defaultCandidateWindow
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		tokens:    tokens,
		users:     users,
		hasher:    hasher,
		anomaly:   anomaly,
		tx:        tx,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (s *TokenService) RefreshTokenTTL() time.Duration {
	return s.cfg.RefreshTokenTTL
}

// Issue generates a fresh opaque refresh token for the user, stores its
// bcrypt hash bound to the origin IP, and returns the raw value. The raw
// value is never persisted.
func (s *TokenService) Issue(ctx context.Context, userID int64, originIP string) (string, error) {
	if err := s.checkOriginIP(originIP); err != nil {
		return "", err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return "", fmt.Errorf("%w: unknown user", domainErrors.ErrInvalidInput)
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return "", fmt.Errorf("%w: user is deactivated", domainErrors.ErrInvalidInput)
	}

	raw, err := security.GenerateRefreshTokenValue()
	if err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	hash, err := s.hasher.HashToken(raw)
	if err != nil {
		return "", fmt.Errorf("failed to hash refresh token: %w", err)
	}

	record := &models.RefreshToken{
		UserID:      userID,
		TokenHash:   hash,
		ExpiresAt:   time.Now().Add(s.cfg.RefreshTokenTTL),
		CreatedByIP: originIP,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.Debug("refresh token issued",
		zap.Int64("user_id", userID),
		zap.Int64("token_id", record.ID))
	return raw, nil
}

// ValidateAndRotate performs the one-shot exchange of a presented refresh
// token: it matches the raw value against recent active records, enforces
// the IP binding, runs the travel anomaly check, and atomically revokes the
// matched record while issuing a replacement. A second presentation of the
// same value, concurrent or later, fails with ErrUnauthorized.
func (s *TokenService) ValidateAndRotate(ctx context.Context, rawToken, currentIP string) (string, int64, error) {
	if rawToken == "" {
		return "", 0, fmt.Errorf("%w: refresh token is required", domainErrors.ErrInvalidInput)
	}
	if err := s.checkOriginIP(currentIP); err != nil {
		return "", 0, err
	}

	matched, err := s.findByRawToken(ctx, rawToken)
	if err != nil {
		metrics.TokenRotationsTotal.WithLabelValues("failure").Inc()
		return "", 0, err
	}

	if matched.CreatedByIP != currentIP {
		metrics.TokenRotationsTotal.WithLabelValues("failure").Inc()
		s.logger.Warn("refresh token presented from a different IP",
			zap.Int64("user_id", matched.UserID),
			zap.String("bound_ip", matched.CreatedByIP),
			zap.String("current_ip", currentIP))
		return "", 0, fmt.Errorf("%w: token origin mismatch", domainErrors.ErrUnauthorized)
	}

	if suspicious, reason := s.anomaly.Assess(ctx, matched.UserID, currentIP); suspicious {
		metrics.TokenRotationsTotal.WithLabelValues("failure").Inc()
		metrics.SuspiciousActivityTotal.Inc()
		s.publish(ctx, events.EventSuspiciousActivity, events.SecurityEvent{
			UserID: matched.UserID,
			IP:     currentIP,
			Reason: reason,
			Time:   time.Now().UTC(),
		})
		return "", 0, domainErrors.NewSuspiciousActivity(reason)
	}

	var newRaw string
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.tokens.Revoke(txCtx, matched.ID); err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				// Lost the race against a concurrent rotation of the
				// same token: treat it as a replay.
				return fmt.Errorf("%w: refresh token already rotated", domainErrors.ErrUnauthorized)
			}
			return fmt.Errorf("failed to revoke rotated token: %w", err)
		}
		raw, err := s.Issue(txCtx, matched.UserID, currentIP)
		if err != nil {
			return err
		}
		newRaw = raw
		return nil
	})
	if err != nil {
		metrics.TokenRotationsTotal.WithLabelValues("failure").Inc()
		return "", 0, err
	}

	metrics.TokenRotationsTotal.WithLabelValues("success").Inc()
	s.logger.Info("refresh token rotated",
		zap.Int64("user_id", matched.UserID),
		zap.String("ip", currentIP))
	return newRaw, matched.UserID, nil
}

// Revoke invalidates the record matching the presented raw token. It reports
// whether a record was revoked; an unknown or already-revoked token yields
// (false, nil) so logout stays idempotent.
func (s *TokenService) Revoke(ctx context.Context, rawToken, currentIP string) (bool, error) {
	if rawToken == "" {
		return false, fmt.Errorf("%w: refresh token is required", domainErrors.ErrInvalidInput)
	}
	if err := s.checkOriginIP(currentIP); err != nil {
		return false, err
	}

	matched, err := s.findByRawToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}

	if err := s.tokens.Revoke(ctx, matched.ID); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to revoke token: %w", err)
	}

	metrics.TokensRevokedTotal.WithLabelValues("single").Inc()
	s.logger.Info("refresh token revoked",
		zap.Int64("user_id", matched.UserID),
		zap.String("ip", currentIP))
	return true, nil
}

// RevokeAll invalidates every active refresh token belonging to the user,
// terminating all their sessions at once.
func (s *TokenService) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	count, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	if count > 0 {
		metrics.TokensRevokedTotal.WithLabelValues("all").Add(float64(count))
		s.publish(ctx, events.EventTokensRevokedAll, events.SecurityEvent{
			UserID: userID,
			Reason: fmt.Sprintf("%d tokens revoked", count),
			Time:   time.Now().UTC(),
		})
	}
	s.logger.Info("revoked all refresh tokens for user",
		zap.Int64("user_id", userID),
		zap.Int64("count", count))
	return count, nil
}

// PurgeExpired deletes refresh token records past their expiry.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	count, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired tokens: %w", err)
	}
	if count > 0 {
		metrics.TokensPurgedTotal.Add(float64(count))
		s.logger.Info("purged expired refresh tokens", zap.Int64("count", count))
	}
	return count, nil
}

// findByRawToken scans the recent active window and bcrypt-verifies each
// candidate against the presented value. Equality lookup is impossible
// because only salted hashes are stored.
func (s *TokenService) findByRawToken(ctx context.Context, rawToken string) (*models.RefreshToken, error) {
	candidates, err := s.tokens.FindRecentActive(ctx, s.cfg.CandidateWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load token candidates: %w", err)
	}
	for _, candidate := range candidates {
		ok, err := s.hasher.VerifyToken(candidate.TokenHash, rawToken)
		if err != nil {
			s.logger.Warn("skipping malformed token hash",
				zap.Int64("token_id", candidate.ID),
				zap.Error(err))
			continue
		}
		if ok {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("%w: refresh token not recognized", domainErrors.ErrUnauthorized)
}

func (s *TokenService) checkOriginIP(ip string) error {
	if ip == "" || !geoip.IsValid(ip) {
		return fmt.Errorf("%w: origin IP is invalid", domainErrors.ErrInvalidInput)
	}
	if !s.cfg.AllowPrivateIPs && geoip.IsPrivate(ip) {
		return fmt.Errorf("%w: private origin IP rejected", domainErrors.ErrInvalidInput)
	}
	return nil
}

var (
	_ TokenRotator    = (*TokenService)(nil)
	_ AnomalyDetector = (*AnomalyService)(nil)
)

func (s *TokenService) publish(ctx context.Context, eventType events.EventType, event events.SecurityEvent) {
	if err := s.publisher.PublishSecurityEvent(ctx, eventType, event); err != nil {
		s.logger.Error("failed to publish security event",
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}
