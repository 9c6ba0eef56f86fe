package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SalahEddine-Ra/TeamFLow/internal/domain/models"
	"github.com/SalahEddine-Ra/TeamFLow/internal/events"
	"github.com/SalahEddine-Ra/TeamFLow/internal/infrastructure/geoip"
)

type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindRecentActive(ctx context.Context, limit int) ([]*models.RefreshToken, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) FindLatestByUserID(ctx context.Context, userID int64) (*models.RefreshToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetDefaultMembership(ctx context.Context, userID int64) (*models.OrganizationMembership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrganizationMembership), args.Error(1)
}

func (m *MockUserRepository) CreateMembership(ctx context.Context, membership *models.OrganizationMembership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockUserRepository) IsPlatformAdmin(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type MockGeoLocator struct {
	mock.Mock
}

func (m *MockGeoLocator) Locate(ctx context.Context, ip string) (geoip.Location, bool) {
	args := m.Called(ctx, ip)
	return args.Get(0).(geoip.Location), args.Bool(1)
}

type MockAnomalyDetector struct {
	mock.Mock
}

func (m *MockAnomalyDetector) Assess(ctx context.Context, userID int64, currentIP string) (bool, string) {
	args := m.Called(ctx, userID, currentIP)
	return args.Bool(0), args.String(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishSecurityEvent(ctx context.Context, eventType events.EventType, event events.SecurityEvent) error {
	args := m.Called(ctx, eventType, event)
	return args.Error(0)
}

// fakeTxManager executes the transactional body inline; the repositories are
// mocked, so there is nothing to commit.
type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockTokenRotator struct {
	mock.Mock
}

func (m *MockTokenRotator) Issue(ctx context.Context, userID int64, originIP string) (string, error) {
	args := m.Called(ctx, userID, originIP)
	return args.String(0), args.Error(1)
}

func (m *MockTokenRotator) ValidateAndRotate(ctx context.Context, rawToken, currentIP string) (string, int64, error) {
	args := m.Called(ctx, rawToken, currentIP)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockTokenRotator) Revoke(ctx context.Context, rawToken, currentIP string) (bool, error) {
	args := m.Called(ctx, rawToken, currentIP)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRotator) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRotator) RefreshTokenTTL() time.Duration {
	return 7 * 24 * time.Hour
}
