package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"connectme/backend/internal/interest/domain"
)

const searchLimit = 20

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a Postgres-backed interest repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Resolve(ctx context.Context, termIDs []int64) ([]domain.InterestTerm, error) {
	terms := make([]domain.InterestTerm, 0, len(termIDs))
	for _, id := range termIDs {
		var t domain.InterestTerm
		err := r.db.QueryRowContext(ctx, `
			SELECT id, interest_id, term, language
			FROM interest_terms
			WHERE id = $1
		`, id).Scan(&t.ID, &t.InterestID, &t.Term, &t.Language)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("term %d: %w", id, domain.ErrNoSuchTerm)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, nil
}

func (r *postgresRepository) SearchTerms(ctx context.Context, term string) ([]domain.InterestTerm, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, interest_id, term, language
		FROM interest_terms
		WHERE lower(term) LIKE lower($1) || '%'
		ORDER BY term
		LIMIT $2
	`, term, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search terms: %w", err)
	}
	defer rows.Close()

	return scanTerms(rows)
}

func (r *postgresRepository) TermInLanguage(ctx context.Context, interestID int64, language string) (*domain.InterestTerm, error) {
	query := `
		SELECT id, interest_id, term, language
		FROM interest_terms
		WHERE interest_id = $1 AND language = $2
	`

	var t domain.InterestTerm
	err := r.db.QueryRowContext(ctx, query, interestID, language).Scan(&t.ID, &t.InterestID, &t.Term, &t.Language)
	if errors.Is(err, sql.ErrNoRows) && language != domain.DefaultLanguage {
		err = r.db.QueryRowContext(ctx, query, interestID, domain.DefaultLanguage).Scan(&t.ID, &t.InterestID, &t.Term, &t.Language)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("term in language: %w", err)
	}
	return &t, nil
}

func (r *postgresRepository) ListForUser(ctx context.Context, username string) ([]domain.InterestTerm, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.interest_id, t.term, t.language
		FROM interest_terms t
		JOIN user_interests ui ON ui.interest_term_id = t.id
		WHERE ui.username = $1
		ORDER BY t.term
	`, username)
	if err != nil {
		return nil, fmt.Errorf("list user interests: %w", err)
	}
	defer rows.Close()

	return scanTerms(rows)
}

func scanTerms(rows *sql.Rows) ([]domain.InterestTerm, error) {
	var terms []domain.InterestTerm
	for rows.Next() {
		var t domain.InterestTerm
		if err := rows.Scan(&t.ID, &t.InterestID, &t.Term, &t.Language); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms: %w", err)
	}
	return terms, nil
}
