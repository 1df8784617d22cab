package repository

import (
	"context"
	"errors"

	"connectme/backend/internal/user/domain"
)

// ErrAlreadyExists is returned by Create when the username or phone number is
// already persisted (database uniqueness, the last line of defense behind the
// workflow's availability checks).
var ErrAlreadyExists = errors.New("user already exists")

// Repository defines persistence for users.
type Repository interface {
	// Get returns the user for username, or nil if not found.
	Get(ctx context.Context, username string) (*domain.User, error)
	// Exists reports whether a user with the given username exists.
	Exists(ctx context.Context, username string) (bool, error)
	// PhoneNumberInUse reports whether any user has the given phone number.
	PhoneNumberInUse(ctx context.Context, phoneNumber string) (bool, error)
	// Create persists the user together with its interest term references.
	Create(ctx context.Context, u *domain.User, interestTermIDs []int64) error
	// Delete removes the user. No-op if the user does not exist.
	Delete(ctx context.Context, username string) error
	// ReplaceInterests replaces the user's interest term references.
	ReplaceInterests(ctx context.Context, username string, interestTermIDs []int64) error
	// GetAuthSecret returns the user's current auth secret; empty when the
	// user is unknown or logged out.
	GetAuthSecret(ctx context.Context, username string) (string, error)
	// SetAuthSecret stores the user's auth secret; an empty secret logs the
	// user out durably.
	SetAuthSecret(ctx context.Context, username, secret string) error
}
