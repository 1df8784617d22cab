package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// ErrDataInsufficient wraps all syntactic validation failures of
// user-submitted registration data.
var ErrDataInsufficient = errors.New("user data insufficient")

const (
	MinUsernameLength = 4
	MaxUsernameLength = 20
	MinPasswordLength = 8
	// MinPasswordDigits is the minimum number of digits a password must contain.
	MinPasswordDigits = 3
	MaxPhoneNumberLength = 15
	// MinInterestTerms is the minimum number of interest terms a profile needs.
	MinInterestTerms = 3
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	phoneRe    = regexp.MustCompile(`^[0-9]+$`)
)

// User is the core user entity.
type User struct {
	Username     string
	PasswordHash string
	PhoneNumber  string
	// AuthSecret is the current per-user token secret; empty while logged out.
	AuthSecret string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RegistrationData holds untrusted data submitted during registration.
// Validate must pass before the data is used.
type RegistrationData struct {
	Username        string  `json:"username" binding:"required"`
	Password        string  `json:"password" binding:"required"`
	PhoneNumber     string  `json:"phoneNumber" binding:"required"`
	InterestTermIDs []int64 `json:"interestTermIds"`
}

// Normalize trims whitespace from all fields and strips spaces from the phone number.
func (d *RegistrationData) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Password = strings.TrimSpace(d.Password)
	d.PhoneNumber = strings.ReplaceAll(strings.TrimSpace(d.PhoneNumber), " ", "")
}

// Validate checks the submitted data syntactically. All failures wrap
// ErrDataInsufficient so callers can classify them uniformly.
func (d *RegistrationData) Validate() error {
	if err := CheckUsername(d.Username); err != nil {
		return err
	}
	if err := CheckPassword(d.Password, d.Username); err != nil {
		return err
	}
	if err := CheckPhoneNumber(d.PhoneNumber); err != nil {
		return err
	}
	if len(d.InterestTermIDs) < MinInterestTerms {
		return fmt.Errorf("%w: a profile needs at least %d interest terms, got %d",
			ErrDataInsufficient, MinInterestTerms, len(d.InterestTermIDs))
	}
	return nil
}

// CheckUsername validates a username: 4-20 characters of A-Z, a-z, 0-9, - and _.
func CheckUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: username must be %d-%d characters long",
			ErrDataInsufficient, MinUsernameLength, MaxUsernameLength)
	}
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username may only contain letters, digits, - and _", ErrDataInsufficient)
	}
	return nil
}

// CheckPassword validates password strength: at least 8 characters, at least
// 3 digits, and it must not contain the username.
func CheckPassword(password, username string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password is too short", ErrDataInsufficient)
	}
	digits := 0
	for _, r := range password {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < MinPasswordDigits {
		return fmt.Errorf("%w: password has too few digits", ErrDataInsufficient)
	}
	if username != "" && strings.Contains(password, username) {
		return fmt.Errorf("%w: password contains username", ErrDataInsufficient)
	}
	return nil
}

// CheckPhoneNumber validates a phone number: digits only, at most 15 characters.
func CheckPhoneNumber(phoneNumber string) error {
	if len(phoneNumber) == 0 || len(phoneNumber) > MaxPhoneNumberLength {
		return fmt.Errorf("%w: phone number must be 1-%d digits", ErrDataInsufficient, MaxPhoneNumberLength)
	}
	if !phoneRe.MatchString(phoneNumber) {
		return fmt.Errorf("%w: phone number must only contain digits", ErrDataInsufficient)
	}
	return nil
}

// LoginData holds untrusted credentials submitted during login.
type LoginData struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
