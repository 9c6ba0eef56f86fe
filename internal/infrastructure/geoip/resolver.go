package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Location is a resolved network origin. A zero Location is never handed to
// callers as a real coordinate; resolution failure is an explicit error so
// (0, 0) cannot masquerade as a point in the Gulf of Guinea.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
}

// Resolver resolves an IP address to approximate coordinates. Implementations
// are network-bound and must honor the context deadline.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (Location, error)
}

// ipapiResponse mirrors the fields we request from ip-api.com.
type ipapiResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

// HTTPResolver resolves addresses against an ip-api.com compatible endpoint.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPResolver creates a resolver over baseURL (for example
// "http://ip-api.com/json"). The timeout bounds every lookup.
func NewHTTPResolver(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Resolve performs the lookup. Any failure, including timeout or a provider
// "fail" status, is returned as an error; callers treat it as unresolved.
func (r *HTTPResolver) Resolve(ctx context.Context, ip string) (Location, error) {
	url := fmt.Sprintf("%s/%s?fields=status,message,lat,lon,city", r.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}, fmt.Errorf("failed to create geo request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("geo lookup failed", zap.String("ip", ip), zap.Error(err))
		return Location{}, fmt.Errorf("geo lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geo API returned status %d", resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("failed to decode geo response: %w", err)
	}
	if body.Status == "fail" {
		r.logger.Warn("geo lookup rejected", zap.String("ip", ip), zap.String("message", body.Message))
		return Location{}, fmt.Errorf("geo lookup rejected: %s", body.Message)
	}
	if body.Lat == 0 && body.Lon == 0 {
		// Provider quirk: a zero coordinate pair is indistinguishable from
		// missing data, so treat it as unresolved.
		return Location{}, fmt.Errorf("geo lookup returned zero coordinates for %s", ip)
	}

	return Location{Latitude: body.Lat, Longitude: body.Lon, City: body.City}, nil
}

var _ Resolver = (*HTTPResolver)(nil)
