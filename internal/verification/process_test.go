package verification

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSender struct {
	phone string
	code  string
	sent  int
	err   error
}

func (s *fakeSender) SendCode(ctx context.Context, phoneNumber, code string) error {
	if s.err != nil {
		return s.err
	}
	s.phone = phoneNumber
	s.code = code
	s.sent++
	return nil
}

func TestStartAttempt_DeliversCode(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcess(sender)

	if err := p.StartAttempt(context.Background(), "4912345678"); err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if sender.sent != 1 {
		t.Fatalf("sent = %d, want 1", sender.sent)
	}
	if sender.phone != "4912345678" {
		t.Errorf("phone = %q, want %q", sender.phone, "4912345678")
	}
	if len(sender.code) != 6 {
		t.Errorf("code = %q, want 6 digits", sender.code)
	}
	for _, r := range sender.code {
		if r < '0' || r > '9' {
			t.Errorf("code %q contains non-digit %q", sender.code, r)
		}
	}
}

func TestStartAttempt_PendingWindowBlocksSecondAttempt(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcess(sender)

	if err := p.StartAttempt(context.Background(), "4912345678"); err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if err := p.StartAttempt(context.Background(), "4912345678"); !errors.Is(err, ErrAttemptNotAllowed) {
		t.Fatalf("second StartAttempt: err = %v, want ErrAttemptNotAllowed", err)
	}
	if p.RemainingWait() <= 0 {
		t.Error("RemainingWait should be positive while a code is pending")
	}

	// After the pending window, another attempt is allowed again.
	p.SetLastAttempt(time.Now().UTC().Add(-PendingWindow - time.Second))
	if err := p.StartAttempt(context.Background(), "4912345678"); err != nil {
		t.Fatalf("StartAttempt after pending window: %v", err)
	}
	if sender.sent != 2 {
		t.Errorf("sent = %d, want 2", sender.sent)
	}
}

func TestCheckCode_Match(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcess(sender)

	if err := p.StartAttempt(context.Background(), "4912345678"); err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if err := p.CheckCode(sender.code); err != nil {
		t.Fatalf("CheckCode: %v", err)
	}
	if !p.Verified() {
		t.Error("Verified should be true after correct code")
	}
	if p.attempts != 0 {
		t.Errorf("attempts = %d, want 0 after successful check", p.attempts)
	}
}

func TestCheckCode_CodeIsSingleUse(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcess(sender)

	if err := p.StartAttempt(context.Background(), "4912345678"); err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if err := p.CheckCode("000000"); !errors.Is(err, ErrWrongCode) {
		t.Fatalf("CheckCode wrong: err = %v, want ErrWrongCode", err)
	}
	// The generated code was invalidated by the failed check.
	if err := p.CheckCode(sender.code); !errors.Is(err, ErrWrongCode) {
		t.Fatalf("CheckCode replay: err = %v, want ErrWrongCode", err)
	}
	if p.Verified() {
		t.Error("Verified should be false after wrong codes")
	}
}

func TestAttemptBudget_CooldownAndLazyReset(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcess(sender)
	ctx := context.Background()

	for i := 0; i < MaxAttempts; i++ {
		if err := p.StartAttempt(ctx, "4912345678"); err != nil {
			t.Fatalf("StartAttempt %d: %v", i, err)
		}
		if err := p.CheckCode("000000"); !errors.Is(err, ErrWrongCode) {
			t.Fatalf("CheckCode %d: err = %v, want ErrWrongCode", i, err)
		}
	}

	if p.AttemptAllowed() {
		t.Fatal("AttemptAllowed should be false after exhausting the budget")
	}
	if err := p.StartAttempt(ctx, "4912345678"); !errors.Is(err, ErrAttemptNotAllowed) {
		t.Fatalf("StartAttempt during cooldown: err = %v, want ErrAttemptNotAllowed", err)
	}
	if w := p.RemainingWait(); w <= 0 || w > Cooldown {
		t.Errorf("RemainingWait = %v, want within (0, %v]", w, Cooldown)
	}

	// Advance past the cooldown: allowed again and the counter is reset.
	p.SetLastAttempt(time.Now().UTC().Add(-Cooldown - time.Second))
	if !p.AttemptAllowed() {
		t.Fatal("AttemptAllowed should be true after the cooldown elapsed")
	}
	if p.attempts != 0 {
		t.Errorf("attempts = %d, want 0 after lazy reset", p.attempts)
	}
	if err := p.StartAttempt(ctx, "4912345678"); err != nil {
		t.Fatalf("StartAttempt after cooldown: %v", err)
	}
	if err := p.CheckCode(sender.code); err != nil {
		t.Fatalf("CheckCode after cooldown: %v", err)
	}
	if !p.Verified() {
		t.Error("Verified should be true")
	}
}

func TestStartAttempt_DeliveryFailureCommitsNothing(t *testing.T) {
	sender := &fakeSender{err: errors.New("gateway down")}
	p := NewProcess(sender)

	if err := p.StartAttempt(context.Background(), "4912345678"); err == nil {
		t.Fatal("StartAttempt should fail when delivery fails")
	}
	if p.code != "" {
		t.Error("no code should be outstanding after a failed delivery")
	}
	if !p.lastAttempt.IsZero() {
		t.Error("lastAttempt should not be recorded after a failed delivery")
	}

	// The failed delivery must not consume the attempt.
	sender.err = nil
	if err := p.StartAttempt(context.Background(), "4912345678"); err != nil {
		t.Fatalf("StartAttempt after recovery: %v", err)
	}
}
