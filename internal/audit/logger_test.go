package audit

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"connectme/backend/internal/audit/domain"
)

type fakeRepo struct {
	entries []*domain.AuditLog
	fail    bool
}

func (r *fakeRepo) GetByID(context.Context, string) (*domain.AuditLog, error) { return nil, nil }

func (r *fakeRepo) ListByUsername(context.Context, string, int32, int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (r *fakeRepo) Create(_ context.Context, a *domain.AuditLog) error {
	if r.fail {
		return errors.New("db down")
	}
	r.entries = append(r.entries, a)
	return nil
}

func TestLogEventPersists(t *testing.T) {
	repo := &fakeRepo{}
	l := NewLogger(repo, zap.NewNop())
	l.sync = true

	l.LogEvent("alice_01", domain.ActionUserLogin, "192.0.2.1", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Username != "alice_01" || e.Action != domain.ActionUserLogin || e.IP != "192.0.2.1" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("entry missing id or timestamp: %+v", e)
	}
}

func TestLogEventSwallowsErrors(t *testing.T) {
	l := NewLogger(&fakeRepo{fail: true}, zap.NewNop())
	l.sync = true

	// Must not panic or surface the failure.
	l.LogEvent("alice_01", domain.ActionUserLogout, "192.0.2.1", "")
}

func TestLogEventNilRepo(t *testing.T) {
	l := NewLogger(nil, zap.NewNop())
	l.LogEvent("alice_01", domain.ActionUserDeleted, "", "")
}
