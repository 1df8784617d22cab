// Package session tracks anonymous browser sessions during registration and
// login. A session is identified by an opaque cookie and owns at most one
// registration and one login workflow; both are discarded when the session
// expires.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"connectme/backend/internal/login"
	"connectme/backend/internal/registration"
)

// CookieName is the session cookie issued to clients.
const CookieName = "cm_session"

// RegistrationFactory builds a fresh registration workflow for a session.
type RegistrationFactory func() *registration.Workflow

// LoginFactory builds a fresh login workflow for a session.
type LoginFactory func() *login.Workflow

type entry struct {
	registration *registration.Workflow
	login        *login.Workflow
	lastSeen     time.Time
}

// Store is an in-memory session store with sliding expiry. Expired entries
// are dropped lazily on access.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration

	newRegistration RegistrationFactory
	newLogin        LoginFactory

	now func() time.Time
}

// NewStore creates a session store whose sessions expire after ttl of
// inactivity.
func NewStore(ttl time.Duration, newRegistration RegistrationFactory, newLogin LoginFactory) *Store {
	return &Store{
		entries:         make(map[string]*entry),
		ttl:             ttl,
		newRegistration: newRegistration,
		newLogin:        newLogin,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// NewSession allocates a session and returns its id.
func (s *Store) NewSession() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.entries[id] = &entry{lastSeen: s.now()}
	s.mu.Unlock()
	return id
}

// Valid reports whether id names a live session, refreshing its expiry.
func (s *Store) Valid(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touch(id) != nil
}

// Registration returns the session's registration workflow, creating it on
// first access. Returns nil for unknown or expired sessions.
func (s *Store) Registration(id string) *registration.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.touch(id)
	if e == nil {
		return nil
	}
	if e.registration == nil {
		e.registration = s.newRegistration()
	}
	return e.registration
}

// Login returns the session's login workflow, creating it on first access.
// Returns nil for unknown or expired sessions.
func (s *Store) Login(id string) *login.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.touch(id)
	if e == nil {
		return nil
	}
	if e.login == nil {
		e.login = s.newLogin()
	}
	return e.login
}

// Drop removes the session and its workflows.
func (s *Store) Drop(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// touch returns the live entry for id with refreshed expiry, deleting it if
// expired. Callers must hold s.mu.
func (s *Store) touch(id string) *entry {
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.ttl {
		delete(s.entries, id)
		return nil
	}
	e.lastSeen = now
	return e
}
