package repository

import (
	"context"

	"connectme/backend/internal/interest/domain"
)

// Repository defines read access to the interest catalog.
type Repository interface {
	// Resolve maps interest term ids to their terms. Returns
	// domain.ErrNoSuchTerm when any id is unknown.
	Resolve(ctx context.Context, termIDs []int64) ([]domain.InterestTerm, error)
	// SearchTerms returns terms whose text matches the given prefix,
	// case-insensitively.
	SearchTerms(ctx context.Context, term string) ([]domain.InterestTerm, error)
	// TermInLanguage returns the interest's term in the requested language,
	// falling back to the default language when no translation exists.
	// Returns nil when the interest has no term at all.
	TermInLanguage(ctx context.Context, interestID int64, language string) (*domain.InterestTerm, error)
	// ListForUser returns the terms a user subscribed to at registration.
	ListForUser(ctx context.Context, username string) ([]domain.InterestTerm, error)
}
