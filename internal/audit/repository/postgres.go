package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"connectme/backend/internal/audit/domain"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

// GetByID returns the audit log for id, or nil if not found. It returns an
// error only for database failures, not for missing rows.
func (r *postgresRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	var a domain.AuditLog
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, action, ip, metadata, created_at
		FROM audit_logs
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Username, &a.Action, &a.IP, &a.Metadata, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit log: %w", err)
	}
	return &a, nil
}

// ListByUsername returns audit logs for the given user, newest first,
// paginated by limit and offset.
func (r *postgresRepository) ListByUsername(ctx context.Context, username string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, action, ip, metadata, created_at
		FROM audit_logs
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, username, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.Username, &a.Action, &a.IP, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return out, nil
}

// Create persists the audit log. The audit log must have ID set.
func (r *postgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, username, action, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Username, a.Action, a.IP, a.Metadata, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
