// Package auth: local password hashing.
//
// WHO HAS A PASSWORD?
// Only the bootstrap administrator configured through USERLOCALE_ADMIN_LOGIN
// and USERLOCALE_ADMIN_PASSWORD. Everyone else signs in through GitHub and
// has an empty password_hash column, which Verify reports as ErrNoPassword.
//
// HASH FORMAT
// The stored value is the full output of bcrypt.GenerateFromPassword, with
// version, cost and salt embedded:
//
//	$2a$12$<22-char salt><31-char hash>
//	    ^^
//	    cost: 2^12 rounds
//
// Changing defaultCost only affects new hashes. Existing hashes keep
// verifying at the cost they were made with, and EnsureAdmin rehashes the
// admin password on every start.
//
// LENGTH LIMITS
// bcrypt reads at most 72 bytes. Hash rejects longer input with
// ErrPasswordTooLong so two passwords sharing a 72-byte prefix never
// collide, and rejects fewer than MinPasswordLength characters with
// ErrPasswordTooShort.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Password limits. bcrypt ignores everything past 72 bytes, so longer
// inputs are refused instead of silently truncated.
const (
	MinPasswordLength = 8
	maxPasswordBytes  = 72
	defaultCost       = 12
)

var (
	ErrPasswordTooShort = fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	ErrNoPassword       = errors.New("auth: account has no local password")
	ErrWrongPassword    = errors.New("auth: wrong password")
)

// PasswordService hashes and checks local passwords.
//
// Only the bootstrap administrator has one: it lets a fresh install reach
// the general settings page before GitHub sign-in is configured.
type PasswordService struct {
	cost int
}

// NewPasswordService uses bcrypt cost 12.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest lets tests in other packages pick a cheap cost.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns a bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	switch {
	case len([]rune(plaintext)) < MinPasswordLength:
		return "", ErrPasswordTooShort
	case len(plaintext) > maxPasswordBytes:
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash, ErrNoPassword for
// accounts without one, and ErrWrongPassword on mismatch.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if hash == "" {
		return ErrNoPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrWrongPassword
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}
