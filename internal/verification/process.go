// Package verification implements the two-factor phone number verification
// process shared by the registration and login workflows: one-time code
// generation and checking with an attempt budget, a pending window while a
// code is outstanding, and a cooldown after the budget is exhausted.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
)

const (
	// MaxAttempts is the number of code checks a user may attempt before the
	// cooldown kicks in. Every verification attempt costs one SMS.
	MaxAttempts = 3

	// Cooldown is how long a user must wait after exhausting MaxAttempts
	// before another attempt is allowed.
	Cooldown = 5 * time.Minute

	// PendingWindow is how long an outstanding code blocks starting a new
	// attempt.
	PendingWindow = 3 * time.Minute

	codeDigits = 6
)

var (
	// ErrAttemptNotAllowed is returned when a new verification attempt is not
	// allowed yet (pending code or active cooldown).
	ErrAttemptNotAllowed = errors.New("verification attempt not allowed")

	// ErrWrongCode is returned when the submitted code does not match the
	// outstanding one. The outstanding code is invalidated either way.
	ErrWrongCode = errors.New("wrong verification code")
)

// CodeSender delivers a generated verification code to a phone number.
// Implemented by the SMS gateway client; tests use local fakes.
type CodeSender interface {
	SendCode(ctx context.Context, phoneNumber, code string) error
}

// Process holds the state of one phone number verification. It is owned
// exclusively by a single workflow instance, which serializes access; Process
// itself is not safe for concurrent use.
type Process struct {
	sender CodeSender

	code        string
	attempts    int
	lastAttempt time.Time
	verified    bool

	now func() time.Time
}

// NewProcess returns a fresh verification process delivering codes via sender.
func NewProcess(sender CodeSender) *Process {
	return &Process{
		sender: sender,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// pendingAttempt reports whether a previously issued code is still outstanding.
func (p *Process) pendingAttempt() bool {
	return p.code != "" && p.now().Add(-PendingWindow).Before(p.lastAttempt)
}

// AttemptAllowed reports whether a new verification attempt may be started.
// It is false while a code is pending and false during the cooldown after the
// attempt budget is exhausted. Crossing the cooldown boundary resets the
// attempt counter as a side effect (lazy reset, no background timer).
func (p *Process) AttemptAllowed() bool {
	if p.attempts >= MaxAttempts {
		if p.lastAttempt.Add(Cooldown).Before(p.now()) {
			p.attempts = 0
			return true
		}
		return false
	}
	return !p.pendingAttempt()
}

// RemainingWait returns how long the caller must wait until AttemptAllowed
// becomes true again; zero when an attempt is allowed now.
func (p *Process) RemainingWait() time.Duration {
	now := p.now()
	if p.attempts >= MaxAttempts {
		if d := p.lastAttempt.Add(Cooldown).Sub(now); d > 0 {
			return d
		}
		return 0
	}
	if p.pendingAttempt() {
		return p.lastAttempt.Add(PendingWindow).Sub(now)
	}
	return 0
}

// StartAttempt generates a new one-time code and delivers it to phoneNumber,
// replacing any previous code. Fails with ErrAttemptNotAllowed when an attempt
// is not allowed; on delivery failure no state is committed.
func (p *Process) StartAttempt(ctx context.Context, phoneNumber string) error {
	if !p.AttemptAllowed() {
		return ErrAttemptNotAllowed
	}
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	if err := p.sender.SendCode(ctx, phoneNumber, code); err != nil {
		return fmt.Errorf("deliver verification code: %w", err)
	}
	p.code = code
	p.lastAttempt = p.now()
	return nil
}

// CheckCode compares candidate against the outstanding code. The code is
// single-use: it is cleared whether or not the comparison succeeds. A match
// marks the process verified and resets the attempt counter; a mismatch
// returns ErrWrongCode and counts against the attempt budget.
func (p *Process) CheckCode(candidate string) error {
	p.attempts++

	match := p.code != "" &&
		subtle.ConstantTimeCompare([]byte(p.code), []byte(candidate)) == 1
	p.code = ""

	if !match {
		p.verified = false
		return ErrWrongCode
	}
	p.verified = true
	p.attempts = 0
	return nil
}

// Verified reports whether a code check has succeeded.
func (p *Process) Verified() bool {
	return p.verified
}

// SetLastAttempt overrides the last attempt timestamp. Only for testing the
// time-window behavior deterministically.
func (p *Process) SetLastAttempt(t time.Time) {
	p.lastAttempt = t
}

// generateCode returns a fixed-length numeric one-time code from crypto/rand.
func generateCode() (string, error) {
	b := make([]byte, codeDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, codeDigits)
	for i := 0; i < codeDigits; i++ {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}
