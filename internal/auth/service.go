// Package auth issues and validates authentication tokens. A token binds a
// username to the user's current auth secret; rotating or clearing the secret
// invalidates every token issued before. Secrets are cached in memory with the
// user store as the durable fallback, so validation normally costs no query.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"connectme/backend/internal/security"
)

var (
	// ErrMalformedToken is returned when the token cannot be parsed or its
	// signature does not verify.
	ErrMalformedToken = errors.New("malformed token")
	// ErrNotAuthenticated is returned when the token is well-formed but its
	// auth secret does not match the user's current one.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// SecretStore is the durable home of per-user auth secrets.
type SecretStore interface {
	GetAuthSecret(ctx context.Context, username string) (string, error)
	SetAuthSecret(ctx context.Context, username, secret string) error
}

// TokenService issues and validates session tokens.
type TokenService struct {
	store  SecretStore
	tokens *security.TokenProvider

	mu     sync.RWMutex
	cache  map[string]string
	flight singleflight.Group
}

// NewTokenService creates a token service backed by store and signing tokens
// with tokens.
func NewTokenService(store SecretStore, tokens *security.TokenProvider) *TokenService {
	return &TokenService{
		store:  store,
		tokens: tokens,
		cache:  make(map[string]string),
	}
}

// IssueToken mints a token for username. A fresh auth secret is generated and
// persisted first, so any previously issued token stops validating.
func (s *TokenService) IssueToken(ctx context.Context, username string) (string, error) {
	secret, err := security.NewAuthSecret()
	if err != nil {
		return "", fmt.Errorf("generate auth secret: %w", err)
	}
	if err := s.store.SetAuthSecret(ctx, username, secret); err != nil {
		return "", fmt.Errorf("persist auth secret: %w", err)
	}

	s.mu.Lock()
	s.cache[username] = secret
	s.mu.Unlock()

	token, err := s.tokens.Issue(username, secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ValidateToken parses the token, compares its auth secret against the user's
// current one and returns the username on success. Cache misses fall back to
// the store; concurrent misses for the same user are collapsed into one load.
func (s *TokenService) ValidateToken(ctx context.Context, token string) (string, error) {
	username, claimed, err := s.tokens.Parse(token)
	if err != nil {
		return "", ErrMalformedToken
	}

	current, err := s.secretFor(ctx, username)
	if err != nil {
		return "", err
	}
	if current == "" ||
		subtle.ConstantTimeCompare([]byte(current), []byte(claimed)) != 1 {
		return "", ErrNotAuthenticated
	}
	return username, nil
}

func (s *TokenService) secretFor(ctx context.Context, username string) (string, error) {
	s.mu.RLock()
	secret, ok := s.cache[username]
	s.mu.RUnlock()
	if ok {
		return secret, nil
	}

	v, err, _ := s.flight.Do(username, func() (any, error) {
		secret, err := s.store.GetAuthSecret(ctx, username)
		if err != nil {
			return "", fmt.Errorf("load auth secret: %w", err)
		}
		if secret != "" {
			s.mu.Lock()
			s.cache[username] = secret
			s.mu.Unlock()
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Revoke clears the user's auth secret durably and from the cache. Every
// outstanding token for the user stops validating.
func (s *TokenService) Revoke(ctx context.Context, username string) error {
	if err := s.store.SetAuthSecret(ctx, username, ""); err != nil {
		return fmt.Errorf("clear auth secret: %w", err)
	}
	s.mu.Lock()
	delete(s.cache, username)
	s.mu.Unlock()
	return nil
}

// ClearCache drops all cached secrets. Validation falls back to the store
// until the cache refills.
func (s *TokenService) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}
