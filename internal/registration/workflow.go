package registration

import (
	"context"
	"errors"
	"sync"
	"time"

	"connectme/backend/internal/interest/domain"
	userdomain "connectme/backend/internal/user/domain"
	"connectme/backend/internal/verification"
)

// State names a step of the registration workflow.
type State string

const (
	StateCreated              State = "CREATED"
	StateDataSubmitted        State = "DATA_SUBMITTED"
	StateAwaitingVerification State = "AWAITING_VERIFICATION"
	StateVerified             State = "VERIFIED"
)

var (
	// ErrNotAllowed is returned when an operation is invoked from a state it
	// is not a legal transition of.
	ErrNotAllowed = errors.New("operation not allowed in current state")
	// ErrResetBlocked is returned when a reset would bypass an active
	// verification cooldown.
	ErrResetBlocked = errors.New("reset blocked by verification cooldown")
	// ErrUsernameTaken is returned when the submitted username is already
	// registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrPhoneInUse is returned when the submitted phone number belongs to
	// another user.
	ErrPhoneInUse = errors.New("phone number already in use")
)

// UserStore is the subset of user persistence the workflow consults for
// availability checks.
type UserStore interface {
	Exists(ctx context.Context, username string) (bool, error)
	PhoneNumberInUse(ctx context.Context, phoneNumber string) (bool, error)
}

// InterestResolver validates interest term ids against the catalog.
type InterestResolver interface {
	Resolve(ctx context.Context, termIDs []int64) ([]domain.InterestTerm, error)
}

// Workflow drives a single registration from data submission through phone
// verification. One instance lives per session; its mutex serializes the
// session's requests.
type Workflow struct {
	mu sync.Mutex

	state        State
	data         userdomain.RegistrationData
	terms        []domain.InterestTerm
	verification *verification.Process

	users     UserStore
	interests InterestResolver
	sender    verification.CodeSender
}

// NewWorkflow creates a registration workflow in the CREATED state.
func NewWorkflow(users UserStore, interests InterestResolver, sender verification.CodeSender) *Workflow {
	return &Workflow{
		state:        StateCreated,
		verification: verification.NewProcess(sender),
		users:        users,
		interests:    interests,
		sender:       sender,
	}
}

// Reset discards submitted data and returns the workflow to CREATED. Blocked
// while the verification cooldown is active, so restarting a registration
// cannot be used to obtain fresh code attempts early.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.verification.AttemptAllowed() {
		return ErrResetBlocked
	}
	w.reset()
	return nil
}

func (w *Workflow) reset() {
	w.state = StateCreated
	w.data = userdomain.RegistrationData{}
	w.terms = nil
	w.verification = verification.NewProcess(w.sender)
}

// SubmitUserData validates and stores the registration data, moving the
// workflow to DATA_SUBMITTED. A taken username resets the workflow so the
// client starts over with a fresh submission.
func (w *Workflow) SubmitUserData(ctx context.Context, data userdomain.RegistrationData) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateCreated {
		return ErrNotAllowed
	}

	data.Normalize()
	if err := data.Validate(); err != nil {
		return err
	}

	taken, err := w.users.Exists(ctx, data.Username)
	if err != nil {
		return err
	}
	if taken {
		w.reset()
		return ErrUsernameTaken
	}

	inUse, err := w.users.PhoneNumberInUse(ctx, data.PhoneNumber)
	if err != nil {
		return err
	}
	if inUse {
		return ErrPhoneInUse
	}

	terms, err := w.interests.Resolve(ctx, data.InterestTermIDs)
	if err != nil {
		return err
	}

	w.data = data
	w.terms = terms
	w.state = StateDataSubmitted
	return nil
}

// StartVerification sends a one-time code to the submitted phone number and
// moves the workflow to AWAITING_VERIFICATION. Only legal from DATA_SUBMITTED:
// an outstanding code must be consumed by SubmitCode (counting an attempt)
// before another can be requested. Subject to the verification process's
// attempt limits.
func (w *Workflow) StartVerification(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateDataSubmitted {
		return ErrNotAllowed
	}
	if err := w.verification.StartAttempt(ctx, w.data.PhoneNumber); err != nil {
		return err
	}
	w.state = StateAwaitingVerification
	return nil
}

// SubmitCode checks the candidate code. On a match the workflow reaches
// VERIFIED; on a mismatch it falls back to DATA_SUBMITTED and a new code must
// be requested.
func (w *Workflow) SubmitCode(candidate string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateAwaitingVerification {
		return ErrNotAllowed
	}
	if err := w.verification.CheckCode(candidate); err != nil {
		w.state = StateDataSubmitted
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

// Data returns the submitted registration data.
func (w *Workflow) Data() userdomain.RegistrationData {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.data
}

// Terms returns the resolved interest terms.
func (w *Workflow) Terms() []domain.InterestTerm {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terms
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
