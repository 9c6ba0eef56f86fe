package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the token core. Registered once via promauto; services bump
// them directly.
var (
	// LoginAttemptsTotal counts login attempts by outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamflow_auth_login_attempts_total",
		Help: "The total number of login attempts by status",
	}, []string{"status"})

	// TokenRotationsTotal counts refresh token rotations by outcome.
	TokenRotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamflow_auth_token_rotations_total",
		Help: "The total number of refresh token rotations by status",
	}, []string{"status"})

	// SuspiciousActivityTotal counts continuations flagged by the anomaly
	// detector.
	SuspiciousActivityTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamflow_auth_suspicious_activity_total",
		Help: "The total number of session continuations flagged as suspicious",
	})

	// TokensRevokedTotal counts revocations, split by single vs mass.
	TokensRevokedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamflow_auth_tokens_revoked_total",
		Help: "The total number of refresh tokens revoked",
	}, []string{"scope"})

	// TokensPurgedTotal counts expired records removed by the cleanup sweep.
	TokensPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamflow_auth_tokens_purged_total",
		Help: "The total number of expired refresh token records purged",
	})
)
