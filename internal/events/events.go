package events

import (
	"context"
	"time"
)

// EventType identifies a security event.
type EventType string

const (
	// EventSuspiciousActivity is published when the anomaly detector rejects
	// a session continuation.
	EventSuspiciousActivity EventType = "com.teamflow.auth.suspicious_activity"

	// EventTokensRevokedAll is published after a mass revocation of a user's
	// refresh tokens.
	EventTokensRevokedAll EventType = "com.teamflow.auth.tokens_revoked_all"
)

// SecurityEvent is the payload published for alertable auth events. Raw token
// values never appear here.
type SecurityEvent struct {
	UserID int64     `json:"user_id"`
	IP     string    `json:"ip,omitempty"`
	Reason string    `json:"reason,omitempty"`
	Time   time.Time `json:"time"`
}

// Publisher delivers security events to interested consumers. Publishing is
// advisory; failures must not fail the auth operation that triggered them.
type Publisher interface {
	PublishSecurityEvent(ctx context.Context, eventType EventType, event SecurityEvent) error
}

// NoopPublisher discards events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSecurityEvent(context.Context, EventType, SecurityEvent) error {
	return nil
}

var _ Publisher = NoopPublisher{}
