package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	domainErrors "github.com/SalahEddine-Ra/TeamFLow/internal/domain/errors"
	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
	"github.com/SalahEddine-Ra/TeamFLow/internal/infrastructure/geoip"
)

var (
	parisLoc    = geoip.Location{Latitude: 48.8566, Longitude: 2.3522, City: "Paris"}
	brusselsLoc = geoip.Location{Latitude: 50.8503, Longitude: 4.3517, City: "Brussels"}
	sydneyLoc   = geoip.Location{Latitude: -33.8688, Longitude: 151.2093, City: "Sydney"}
)

func newAnomalyFixture(t *testing.T) (*AnomalyService, *MockRefreshTokenRepository, *MockGeoLocator) {
	t.Helper()
	tokens := new(MockRefreshTokenRepository)
	locator := new(MockGeoLocator)
	svc := NewAnomalyService(tokens, locator, AnomalyConfig{}, zap.NewNop())
	return svc, tokens, locator
}

func TestAnomalyAssess_FirstSession(t *testing.T) {
	svc, tokens, _ := newAnomalyFixture(t)
	tokens.On("FindLatestByUserID", mock.Anything, int64(1)).
		Return(nil, domainErrors.ErrNotFound).Once()

	suspicious, reason := svc.Assess(context.Background(), 1, "203.0.113.10")

	assert.False(t, suspicious)
	assert.Equal(t, "first session", reason)
	tokens.AssertExpectations(t)
}

func TestAnomalyAssess_SameOrigin(t *testing.T) {
	svc, tokens, locator := newAnomalyFixture(t)
	tokens.On("FindLatestByUserID", mock.Anything, int64(1)).
		Return(&models.RefreshToken{CreatedByIP: "203.0.113.10"}, nil).Once()

	suspicious, reason := svc.Assess(context.Background(), 1, "203.0.113.10")

	assert.False(t, suspicious)
	assert.Equal(t, "same origin", reason)
	locator.AssertNotCalled(t, "Locate", mock.Anything, mock.Anything)
}

func TestAnomalyAssess_UnresolvedLocationFailsOpen(t *testing.T) {
	svc, tokens, locator := newAnomalyFixture(t)
	tokens.On("FindLatestByUserID", mock.Anything, int64(1)).
		Return(&models.RefreshToken{CreatedByIP: "203.0.113.10", CreatedAt: time.Now().Add(-time.Hour)}, nil).Once()
	locator.On("Locate", mock.Anything, "203.0.113.10").Return(geoip.Location{}, false).Once()

	suspicious, reason := svc.Assess(context.Background(), 1, "198.51.100.7")

	assert.False(t, suspicious)
	assert.Empty(t, reason)
	locator.AssertExpectations(t)
}

func TestAnomalyAssess_RepositoryErrorFailsOpen(t *testing.T) {
	svc, tokens, _ := newAnomalyFixture(t)
	tokens.On("FindLatestByUserID", mock.Anything, int64(1)).
		Return(nil, errors.New("connection reset")).Once()

	suspicious, reason := svc.Assess(context.Background(), 1, "203.0.113.10")

	assert.False(t, suspicious)
	assert.Empty(t, reason)
}

func TestAnomalyAssess_ImpossibleSpeed(t *testing.T) {
	svc, tokens, locator := newAnomalyFixture(t)
	// An origin ~200 km away after one minute stays under the distance
	// threshold but implies a speed no vehicle reaches.
	nearby := geoip.Location{Latitude: 48.0, Longitude: 2.0}
	shifted := geoip.Location{Latitude: 49.8, Longitude: 2.0}
	tokens.On("FindLatestByUserID", mock.Anything, int64(1)).
		Return(&models.RefreshToken{
			CreatedByIP: "203.0.113.10",
			CreatedAt:   time.Now().Add(-time.Minute),
		}, nil).Once()
	locator.On("Locate", mock.Anything, "203.0.113.10").Return(nearby, true).Once()
	locator.On("Locate", mock.Anything, "198.51.100.7").Return(shifted, true).Once()

	suspicious, reason := svc.Assess(context.Background(), 1, "198.51.100.7")

	assert.True(t, suspicious)
	assert.Contains(t, reason, "impossible travel speed")
}

func TestAnomalyAssess_DistanceCitedEvenWhenSpeedIsAbsurd(t *testing.T) {
	svc, tokens, locator := newAnomalyFixture(t)
	// ~1,500 km in ten minutes exceeds both thresholds; the reason must
	// cite the displacement, not the implied speed.
	origin := geoip.Location{Latitude: 10.0, Longitude: 0.0}
	farAway := geoip.Location{Latitude: 23.5, Longitude: 0.0}
	tokens.On("FindLatestByUserID", mock.Anything, int64(1)).
		Return(&models.RefreshToken{
			CreatedByIP: "203.0.113.10",
			CreatedAt:   time.Now().Add(-10 * time.Minute),
		}, nil).Once()
	locator.On("Locate", mock.Anything, "203.0.113.10").Return(origin, true).Once()
	locator.On("Locate", mock.Anything, "198.51.100.7").Return(farAway, true).Once()

	suspicious, reason := svc.Assess(context.Background(), 1, "198.51.100.7")

	assert.True(t, suspicious)
	assert.Contains(t, reason, "improbable location change")
	assert.Contains(t, reason, "km between")
	assert.NotContains(t, reason, "impossible travel speed")
}

func TestAnomalyAssess_ImprobableDistance(t *testing.T) {
	svc, tokens, locator := newAnomalyFixture(t)
	// A week between sessions keeps the implied speed low, but Paris to
	// Sydney still exceeds the displacement threshold.
	tokens.On("FindLatestByUserID", mock.Anything, int64(1)).
		Return(&models.RefreshToken{
			CreatedByIP: "203.0.113.10",
			CreatedAt:   time.Now().Add(-7 * 24 * time.Hour),
		}, nil).Once()
	locator.On("Locate", mock.Anything, "203.0.113.10").Return(parisLoc, true).Once()
	locator.On("Locate", mock.Anything, "198.51.100.7").Return(sydneyLoc, true).Once()

	suspicious, reason := svc.Assess(context.Background(), 1, "198.51.100.7")

	assert.True(t, suspicious)
	assert.Contains(t, reason, "improbable location change")
}

func TestAnomalyAssess_NearbyMove(t *testing.T) {
	svc, tokens, locator := newAnomalyFixture(t)
	// Paris to Brussels is ~260 km: different IP, plausible travel.
	tokens.On("FindLatestByUserID", mock.Anything, int64(1)).
		Return(&models.RefreshToken{
			CreatedByIP: "203.0.113.10",
			CreatedAt:   time.Now().Add(-24 * time.Hour),
		}, nil).Once()
	locator.On("Locate", mock.Anything, "203.0.113.10").Return(parisLoc, true).Once()
	locator.On("Locate", mock.Anything, "198.51.100.7").Return(brusselsLoc, true).Once()

	suspicious, reason := svc.Assess(context.Background(), 1, "198.51.100.7")

	assert.False(t, suspicious)
	assert.Equal(t, "legitimate location change", reason)
}

func TestAnomalyAssess_CustomThresholds(t *testing.T) {
	tokens := new(MockRefreshTokenRepository)
	locator := new(MockGeoLocator)
	svc := NewAnomalyService(tokens, locator, AnomalyConfig{MaxDistanceKm: 100, MaxSpeedKmh: 10000}, zap.NewNop())

	tokens.On("FindLatestByUserID", mock.Anything, int64(1)).
		Return(&models.RefreshToken{
			CreatedByIP: "203.0.113.10",
			CreatedAt:   time.Now().Add(-24 * time.Hour),
		}, nil).Once()
	locator.On("Locate", mock.Anything, "203.0.113.10").Return(parisLoc, true).Once()
	locator.On("Locate", mock.Anything, "198.51.100.7").Return(brusselsLoc, true).Once()

	suspicious, reason := svc.Assess(context.Background(), 1, "198.51.100.7")

	assert.True(t, suspicious)
	assert.Contains(t, reason, "improbable location change")
}
