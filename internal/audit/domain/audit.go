package domain

import "time"

// Actions recorded by the identity code paths.
const (
	ActionUserRegistered = "user.registered"
	ActionUserLogin      = "user.login"
	ActionUserLogout     = "user.logout"
	ActionUserDeleted    = "user.deleted"
)

// AuditLog represents an audit event.
type AuditLog struct {
	ID        string
	Username  string
	Action    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
