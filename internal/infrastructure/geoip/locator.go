package geoip

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// Locator resolves IP addresses to coordinates through a cache. It is
// constructed once and injected wherever location data is needed; there is no
// package-level state.
type Locator struct {
	cache    LocationCache
	resolver Resolver
	timeout  time.Duration
	logger   *zap.Logger
}

// NewLocator creates a Locator. The timeout bounds each resolver call
// independently of the caller's context.
func NewLocator(cache LocationCache, resolver Resolver, timeout time.Duration, logger *zap.Logger) *Locator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Locator{cache: cache, resolver: resolver, timeout: timeout, logger: logger}
}

// Locate returns the location for ip and whether it could be resolved.
// Private and malformed addresses, resolver failures, and timeouts all report
// ok=false; callers must not treat the zero Location as real coordinates.
func (l *Locator) Locate(ctx context.Context, ip string) (Location, bool) {
	if !IsValid(ip) || IsPrivate(ip) {
		return Location{}, false
	}

	if loc, ok := l.cache.Get(ctx, ip); ok {
		return loc, true
	}

	resolveCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	loc, err := l.resolver.Resolve(resolveCtx, ip)
	if err != nil {
		l.logger.Debug("location unresolved", zap.String("ip", ip), zap.Error(err))
		return Location{}, false
	}

	l.cache.Set(ctx, ip, loc)
	return loc, true
}

const earthRadiusKm = 6371.0

// DistanceKm computes the great-circle distance between two locations using
// the haversine formula.
func DistanceKm(a, b Location) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
