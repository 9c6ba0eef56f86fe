package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/repository"
	"github.com/SalahEddine-Ra/TeamFLow/internal/infrastructure/geoip"
)

const (
	defaultMaxDistanceKm = 1000.0
	defaultMaxSpeedKmh   = 800.0
)

// GeoLocator resolves an IP address to coordinates. Implemented by geoip.Locator.
type GeoLocator interface {
	Locate(ctx context.Context, ip string) (geoip.Location, bool)
}

// AnomalyConfig holds the impossible-travel thresholds.
type AnomalyConfig struct {
	MaxDistanceKm float64
	MaxSpeedKmh   float64
}

// AnomalyService flags refresh attempts whose origin is geographically
// implausible given the user's previous session. It is a heuristic layer:
// any failure to resolve a location degrades to "not suspicious" so that
// a geolocation outage never locks users out.
type AnomalyService struct {
	tokens  repository.RefreshTokenRepository
	locator GeoLocator
	cfg     AnomalyConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewAnomalyService(
	tokens repository.RefreshTokenRepository,
	locator GeoLocator,
	cfg AnomalyConfig,
	logger *zap.Logger,
) *AnomalyService {
	if cfg.MaxDistanceKm <= 0 {
		cfg.MaxDistanceKm = defaultMaxDistanceKm
	}
	if cfg.MaxSpeedKmh <= 0 {
		cfg.MaxSpeedKmh = defaultMaxSpeedKmh
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnomalyService{
		tokens:  tokens,
		locator: locator,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Assess compares the current origin IP against the IP that created the
// user's most recent refresh token. It returns true with a human-readable
// reason when the displacement or the implied travel speed exceeds the
// configured thresholds.
func (s *AnomalyService) Assess(ctx context.Context, userID int64, currentIP string) (bool, string) {
	previous, err := s.tokens.FindLatestByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return false, "first session"
		}
		s.logger.Warn("anomaly check skipped: failed to load previous token",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return false, ""
	}

	if previous.CreatedByIP == currentIP {
		return false, "same origin"
	}

	prevLoc, ok := s.locator.Locate(ctx, previous.CreatedByIP)
	if !ok {
		return false, ""
	}
	currLoc, ok := s.locator.Locate(ctx, currentIP)
	if !ok {
		return false, ""
	}

	distance := geoip.DistanceKm(prevLoc, currLoc)
	elapsed := s.now().Sub(previous.CreatedAt)

	// Displacement is checked before implied speed: a jump past the
	// distance threshold is reported as such even when the elapsed time
	// also makes the speed absurd.
	if distance > s.cfg.MaxDistanceKm {
		reason := fmt.Sprintf("improbable location change: %.0f km between %s and %s",
			distance, previous.CreatedByIP, currentIP)
		s.logger.Warn("suspicious refresh origin",
			zap.Int64("user_id", userID),
			zap.Float64("distance_km", distance))
		return true, reason
	}

	if elapsed > 0 {
		speed := distance / elapsed.Hours()
		if speed > s.cfg.MaxSpeedKmh {
			reason := fmt.Sprintf("impossible travel speed: %.0f km/h between %s and %s",
				speed, previous.CreatedByIP, currentIP)
			s.logger.Warn("suspicious refresh origin",
				zap.Int64("user_id", userID),
				zap.Float64("distance_km", distance),
				zap.Float64("speed_kmh", speed))
			return true, reason
		}
	}

	return false, "legitimate location change"
}
