// Package audit records security-relevant identity events. Logging is
// best-effort: a failed audit write never fails the request that caused it.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"connectme/backend/internal/audit/domain"
	auditrepo "connectme/backend/internal/audit/repository"
)

const writeTimeout = 5 * time.Second

// AuditLogger writes a single audit event. Used by the registration, login
// and account code paths.
type AuditLogger interface {
	LogEvent(username, action, ip, metadata string)
}

// Logger implements AuditLogger by persisting asynchronously to the audit
// repository.
type Logger struct {
	repo auditrepo.Repository
	log  *zap.Logger

	// async is disabled in tests so writes can be asserted deterministically.
	sync bool
}

// NewLogger returns an AuditLogger that persists to repo. repo may be nil;
// then events are dropped.
func NewLogger(repo auditrepo.Repository, log *zap.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

// LogEvent records one audit entry without blocking the caller. Errors are
// logged and not returned.
func (l *Logger) LogEvent(username, action, ip, metadata string) {
	if l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.NewString(),
		Username:  username,
		Action:    action,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if l.sync {
		l.write(entry)
		return
	}
	go l.write(entry)
}

func (l *Logger) write(entry *domain.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("username", entry.Username),
			zap.Error(err))
	}
}
