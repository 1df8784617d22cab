// Package events publishes identity lifecycle events for downstream consumers
// (matching, notifications). Publishing is best-effort and never fails the
// request that produced the event.
package events

import (
	"context"
	"time"
)

// Event types emitted by the identity service.
const (
	TypeUserRegistered = "user.registered"
	TypeUserLogin      = "user.login"
	TypeUserLogout     = "user.logout"
	TypeUserDeleted    = "user.deleted"
)

// Event is one identity lifecycle event.
type Event struct {
	Type     string            `json:"type"`
	Username string            `json:"username"`
	At       time.Time         `json:"at"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Producer emits identity events to a broker.
type Producer interface {
	Emit(ctx context.Context, event *Event) error
	Close() error
}
