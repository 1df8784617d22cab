package login

import (
	"context"
	"errors"
	"sync"
	"time"

	"connectme/backend/internal/security"
	"connectme/backend/internal/user/domain"
	"connectme/backend/internal/verification"
)

// State names a step of the login workflow.
type State string

const (
	StateInit                State = "INIT"
	StateCredentialsAccepted State = "CREDENTIALS_ACCEPTED"
	StateVerificationPending State = "VERIFICATION_PENDING"
	StateVerified            State = "VERIFIED"
)

var (
	// ErrNotAllowed is returned when an operation is invoked from a state it
	// is not a legal transition of.
	ErrNotAllowed = errors.New("operation not allowed in current state")
	// ErrResetBlocked is returned when a reset would bypass an active
	// verification cooldown.
	ErrResetBlocked = errors.New("reset blocked by verification cooldown")
	// ErrUnknownUser is returned when no user exists for the submitted
	// username.
	ErrUnknownUser = errors.New("unknown user")
	// ErrWrongPassword is returned when the password does not match the
	// stored hash.
	ErrWrongPassword = errors.New("wrong password")
)

// UserStore is the subset of user persistence the workflow needs to check
// credentials.
type UserStore interface {
	Get(ctx context.Context, username string) (*domain.User, error)
}

// Workflow drives a single login from credential submission through phone
// verification. One instance lives per session; its mutex serializes the
// session's requests.
type Workflow struct {
	mu sync.Mutex

	state        State
	user         *domain.User
	verification *verification.Process

	users  UserStore
	hasher *security.Hasher
	sender verification.CodeSender
}

// NewWorkflow creates a login workflow in the INIT state.
func NewWorkflow(users UserStore, hasher *security.Hasher, sender verification.CodeSender) *Workflow {
	return &Workflow{
		state:        StateInit,
		verification: verification.NewProcess(sender),
		users:        users,
		hasher:       hasher,
		sender:       sender,
	}
}

// Reset discards the accepted credentials and returns the workflow to INIT.
// Blocked while the verification cooldown is active.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.verification.AttemptAllowed() {
		return ErrResetBlocked
	}
	w.state = StateInit
	w.user = nil
	w.verification = verification.NewProcess(w.sender)
	return nil
}

// SubmitCredentials checks username and password against the user store and
// moves the workflow to CREDENTIALS_ACCEPTED.
func (w *Workflow) SubmitCredentials(ctx context.Context, data domain.LoginData) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateInit {
		return ErrNotAllowed
	}

	u, err := w.users.Get(ctx, data.Username)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUnknownUser
	}
	if err := w.hasher.Compare(u.PasswordHash, []byte(data.Password)); err != nil {
		return ErrWrongPassword
	}

	w.user = u
	w.state = StateCredentialsAccepted
	return nil
}

// StartVerification sends a one-time code to the user's registered phone
// number and moves the workflow to VERIFICATION_PENDING. Only legal from
// CREDENTIALS_ACCEPTED: an outstanding code must be consumed by SubmitCode
// before another can be requested. Subject to the verification process's
// attempt limits.
func (w *Workflow) StartVerification(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateCredentialsAccepted {
		return ErrNotAllowed
	}
	if err := w.verification.StartAttempt(ctx, w.user.PhoneNumber); err != nil {
		return err
	}
	w.state = StateVerificationPending
	return nil
}

// SubmitCode checks the candidate code. On a match the workflow reaches
// VERIFIED; on a mismatch it falls back to CREDENTIALS_ACCEPTED and a new
// code must be requested.
func (w *Workflow) SubmitCode(candidate string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateVerificationPending {
		return ErrNotAllowed
	}
	if err := w.verification.CheckCode(candidate); err != nil {
		w.state = StateCredentialsAccepted
		return err
	}
	w.state = StateVerified
	return nil
}

// State returns the workflow's current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Username returns the authenticated user's name; empty before credentials
// are accepted.
func (w *Workflow) Username() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.user == nil {
		return ""
	}
	return w.user.Username
}

// RemainingWait reports how long until the next verification attempt is
// allowed; zero when one is allowed now.
func (w *Workflow) RemainingWait() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.verification.RemainingWait()
}

// Verification exposes the underlying process. Only for tests that steer the
// process clock; concurrent requests must go through the workflow methods.
func (w *Workflow) Verification() *verification.Process {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.verification
}
