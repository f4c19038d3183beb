package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultMinPasswordLength applies when no minimum is configured.
const DefaultMinPasswordLength = 8

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// Passwords hashes and verifies passwords with a fixed policy.
type Passwords struct {
	cost      int
	minLength int
}

// NewPasswords builds a hasher. A cost outside bcrypt's range falls back to
// bcrypt.DefaultCost and a non-positive minimum to DefaultMinPasswordLength.
func NewPasswords(cost, minLength int) *Passwords {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	return &Passwords{cost: cost, minLength: minLength}
}

// Validate checks a candidate password against the length policy.
func (p *Passwords) Validate(password string) error {
	if len(password) < p.minLength {
		return fmt.Errorf("%w: need at least %d characters", ErrPasswordTooShort, p.minLength)
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash creates a bcrypt hash of the password.
func (p *Passwords) Hash(password string) (string, error) {
	if err := p.Validate(password); err != nil {
		return "", err
	}
	return p.HashUnchecked(password)
}

// HashUnchecked hashes without applying the length policy. It is meant for
// fixed credentials such as the seeded accounts, which must load whatever
// minimum the deployment configures.
func (p *Passwords) HashUnchecked(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Check compares a password with its hash. A mismatch, or a stored value that
// is not a bcrypt hash at all, yields ErrInvalidPassword.
func (p *Passwords) Check(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) ||
			errors.Is(err, bcrypt.ErrHashTooShort) {
			return ErrInvalidPassword
		}
		var prefixErr bcrypt.InvalidHashPrefixError
		if errors.As(err, &prefixErr) {
			return ErrInvalidPassword
		}
		return err
	}
	return nil
}

// ValidateEmail checks format and the RFC 5321 length limit.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}
