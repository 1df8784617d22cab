package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"connectme/backend/internal/user/domain"
)

const uniqueViolation = "23505"

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a Postgres-backed user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Get(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT username, password_hash, phone_number, COALESCE(auth_secret, ''), created_at, updated_at
		FROM users
		WHERE username = $1
	`

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.Username,
		&u.PasswordHash,
		&u.PhoneNumber,
		&u.AuthSecret,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *postgresRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) PhoneNumberInUse(ctx context.Context, phoneNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE phone_number = $1)`, phoneNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check phone number: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) Create(ctx context.Context, u *domain.User, interestTermIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, phone_number, auth_secret, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $5)
	`, u.Username, u.PasswordHash, u.PhoneNumber, u.AuthSecret, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	for _, id := range interestTermIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_interests (username, interest_term_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, u.Username, id)
		if err != nil {
			return fmt.Errorf("insert user interest: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *postgresRepository) ReplaceInterests(ctx context.Context, username string, interestTermIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM user_interests WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("clear user interests: %w", err)
	}

	for _, id := range interestTermIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_interests (username, interest_term_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, username, id)
		if err != nil {
			return fmt.Errorf("insert user interest: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetAuthSecret(ctx context.Context, username string) (string, error) {
	var secret string
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(auth_secret, '') FROM users WHERE username = $1
	`, username).Scan(&secret)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get auth secret: %w", err)
	}
	return secret, nil
}

func (r *postgresRepository) SetAuthSecret(ctx context.Context, username, secret string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET auth_secret = NULLIF($2, ''), updated_at = $3
		WHERE username = $1
	`, username, secret, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set auth secret: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
