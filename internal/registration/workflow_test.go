package registration

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"connectme/backend/internal/interest/domain"
	userdomain "connectme/backend/internal/user/domain"
	"connectme/backend/internal/verification"
)

type fakeUserStore struct {
	usernames map[string]bool
	phones    map[string]bool
}

func (s *fakeUserStore) Exists(_ context.Context, username string) (bool, error) {
	return s.usernames[username], nil
}

func (s *fakeUserStore) PhoneNumberInUse(_ context.Context, phone string) (bool, error) {
	return s.phones[phone], nil
}

type fakeResolver struct {
	known map[int64]domain.InterestTerm
}

func (r *fakeResolver) Resolve(_ context.Context, ids []int64) ([]domain.InterestTerm, error) {
	terms := make([]domain.InterestTerm, 0, len(ids))
	for _, id := range ids {
		t, ok := r.known[id]
		if !ok {
			return nil, fmt.Errorf("term %d: %w", id, domain.ErrNoSuchTerm)
		}
		terms = append(terms, t)
	}
	return terms, nil
}

type fakeSender struct {
	codes []string
	fail  bool
}

func (s *fakeSender) SendCode(_ context.Context, _, code string) error {
	if s.fail {
		return errors.New("gateway down")
	}
	s.codes = append(s.codes, code)
	return nil
}

func (s *fakeSender) lastCode(t *testing.T) string {
	t.Helper()
	if len(s.codes) == 0 {
		t.Fatal("no code was sent")
	}
	return s.codes[len(s.codes)-1]
}

func validData() userdomain.RegistrationData {
	return userdomain.RegistrationData{
		Username:        "alice_01",
		Password:        "v3ry-g00d-pass",
		PhoneNumber:     "4915781234567",
		InterestTermIDs: []int64{1, 2, 3},
	}
}

func newTestWorkflow(sender verification.CodeSender) *Workflow {
	users := &fakeUserStore{usernames: map[string]bool{}, phones: map[string]bool{}}
	resolver := &fakeResolver{known: map[int64]domain.InterestTerm{
		1: {ID: 1, InterestID: 10, Term: "hiking", Language: "en"},
		2: {ID: 2, InterestID: 11, Term: "chess", Language: "en"},
		3: {ID: 3, InterestID: 12, Term: "jazz", Language: "en"},
	}}
	return NewWorkflow(users, resolver, sender)
}

func TestWorkflowHappyPath(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	w := newTestWorkflow(sender)

	if got := w.State(); got != StateCreated {
		t.Fatalf("state = %s, want %s", got, StateCreated)
	}

	if err := w.SubmitUserData(ctx, validData()); err != nil {
		t.Fatalf("SubmitUserData: %v", err)
	}
	if got := w.State(); got != StateDataSubmitted {
		t.Fatalf("state = %s, want %s", got, StateDataSubmitted)
	}
	if len(w.Terms()) != 3 {
		t.Fatalf("terms = %d, want 3", len(w.Terms()))
	}

	if err := w.StartVerification(ctx); err != nil {
		t.Fatalf("StartVerification: %v", err)
	}
	if got := w.State(); got != StateAwaitingVerification {
		t.Fatalf("state = %s, want %s", got, StateAwaitingVerification)
	}

	if err := w.SubmitCode(sender.lastCode(t)); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if got := w.State(); got != StateVerified {
		t.Fatalf("state = %s, want %s", got, StateVerified)
	}
}

func TestWorkflowRejectsOutOfOrderOperations(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkflow(&fakeSender{})

	if err := w.StartVerification(ctx); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("StartVerification before data: err = %v, want ErrNotAllowed", err)
	}
	if err := w.SubmitCode("123456"); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("SubmitCode before verification: err = %v, want ErrNotAllowed", err)
	}

	if err := w.SubmitUserData(ctx, validData()); err != nil {
		t.Fatalf("SubmitUserData: %v", err)
	}
	if err := w.SubmitUserData(ctx, validData()); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("second SubmitUserData: err = %v, want ErrNotAllowed", err)
	}
}

func TestWorkflowTakenUsernameResets(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	w := newTestWorkflow(sender)
	w.users.(*fakeUserStore).usernames["alice_01"] = true

	if err := w.SubmitUserData(ctx, validData()); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("err = %v, want ErrUsernameTaken", err)
	}
	if got := w.State(); got != StateCreated {
		t.Fatalf("state = %s, want %s after taken username", got, StateCreated)
	}

	// A fresh submission with a free username must succeed on the same workflow.
	data := validData()
	data.Username = "alice_02"
	if err := w.SubmitUserData(ctx, data); err != nil {
		t.Fatalf("SubmitUserData after reset: %v", err)
	}
}

func TestWorkflowPhoneInUse(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkflow(&fakeSender{})
	w.users.(*fakeUserStore).phones["4915781234567"] = true

	if err := w.SubmitUserData(ctx, validData()); !errors.Is(err, ErrPhoneInUse) {
		t.Fatalf("err = %v, want ErrPhoneInUse", err)
	}
	if got := w.State(); got != StateCreated {
		t.Fatalf("state = %s, want %s", got, StateCreated)
	}
}

func TestWorkflowUnknownInterestTerm(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkflow(&fakeSender{})

	data := validData()
	data.InterestTermIDs = []int64{1, 2, 999}
	if err := w.SubmitUserData(ctx, data); !errors.Is(err, domain.ErrNoSuchTerm) {
		t.Fatalf("err = %v, want ErrNoSuchTerm", err)
	}
}

func TestWorkflowWrongCodeFallsBack(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	w := newTestWorkflow(sender)

	if err := w.SubmitUserData(ctx, validData()); err != nil {
		t.Fatalf("SubmitUserData: %v", err)
	}
	if err := w.StartVerification(ctx); err != nil {
		t.Fatalf("StartVerification: %v", err)
	}
	if err := w.SubmitCode("000000"); !errors.Is(err, verification.ErrWrongCode) {
		t.Fatalf("err = %v, want ErrWrongCode", err)
	}
	if got := w.State(); got != StateDataSubmitted {
		t.Fatalf("state = %s, want %s after wrong code", got, StateDataSubmitted)
	}

	// The spent code is gone; a new one must be requested and works.
	if err := w.StartVerification(ctx); err != nil {
		t.Fatalf("second StartVerification: %v", err)
	}
	if err := w.SubmitCode(sender.lastCode(t)); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if got := w.State(); got != StateVerified {
		t.Fatalf("state = %s, want %s", got, StateVerified)
	}
}

func TestWorkflowResetBlockedDuringCooldown(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	w := newTestWorkflow(sender)

	if err := w.SubmitUserData(ctx, validData()); err != nil {
		t.Fatalf("SubmitUserData: %v", err)
	}
	for i := 0; i < verification.MaxAttempts; i++ {
		if err := w.StartVerification(ctx); err != nil {
			t.Fatalf("StartVerification %d: %v", i+1, err)
		}
		if err := w.SubmitCode("000000"); !errors.Is(err, verification.ErrWrongCode) {
			t.Fatalf("SubmitCode %d: err = %v, want ErrWrongCode", i+1, err)
		}
	}
	if err := w.StartVerification(ctx); !errors.Is(err, verification.ErrAttemptNotAllowed) {
		t.Fatalf("err = %v, want ErrAttemptNotAllowed", err)
	}

	if err := w.Reset(); !errors.Is(err, ErrResetBlocked) {
		t.Fatalf("Reset during cooldown: err = %v, want ErrResetBlocked", err)
	}

	w.Verification().SetLastAttempt(time.Now().Add(-verification.Cooldown - time.Second))
	if err := w.Reset(); err != nil {
		t.Fatalf("Reset after cooldown: %v", err)
	}
	if got := w.State(); got != StateCreated {
		t.Fatalf("state = %s, want %s after reset", got, StateCreated)
	}
}

func TestWorkflowNoResendWhileCodeOutstanding(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	w := newTestWorkflow(sender)

	if err := w.SubmitUserData(ctx, validData()); err != nil {
		t.Fatalf("SubmitUserData: %v", err)
	}
	if err := w.StartVerification(ctx); err != nil {
		t.Fatalf("StartVerification: %v", err)
	}

	// Even once the pending window has lapsed, the outstanding code must be
	// consumed by SubmitCode before another can be requested; otherwise codes
	// could be re-requested forever without ever spending an attempt.
	w.Verification().SetLastAttempt(time.Now().Add(-verification.PendingWindow - time.Second))
	if err := w.StartVerification(ctx); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("resend from awaiting state: err = %v, want ErrNotAllowed", err)
	}
	if len(sender.codes) != 1 {
		t.Fatalf("codes sent = %d, want 1", len(sender.codes))
	}
	if got := w.State(); got != StateAwaitingVerification {
		t.Fatalf("state = %s, want %s", got, StateAwaitingVerification)
	}
}

func TestWorkflowDeliveryFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{fail: true}
	w := newTestWorkflow(sender)

	if err := w.SubmitUserData(ctx, validData()); err != nil {
		t.Fatalf("SubmitUserData: %v", err)
	}
	if err := w.StartVerification(ctx); err == nil {
		t.Fatal("StartVerification with failing sender: want error")
	}
	if got := w.State(); got != StateDataSubmitted {
		t.Fatalf("state = %s, want %s after delivery failure", got, StateDataSubmitted)
	}
}
