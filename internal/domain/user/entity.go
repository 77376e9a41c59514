// Package user defines accounts and the identity of a signed-in user
package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWrongPassword    = errors.New("password does not match")
)

// bcrypt ignores input past 72 bytes
const maxPasswordBytes = 72

// Identity is the authenticated principal attached to a request. A nil
// *Identity means the caller is anonymous.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Account is a registered user
type Account struct {
	id           uuid.UUID
	email        string
	passwordHash string
	createdAt    time.Time
}

// PasswordPolicy holds the rules applied when an account is created
type PasswordPolicy struct {
	MinLength  int
	BCryptCost int
}

// NewAccount validates the credentials and creates an account with a
// hashed password
func NewAccount(email, password string, policy PasswordPolicy) (*Account, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if len(password) < policy.MinLength {
		return nil, ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	cost := policy.BCryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	return &Account{
		id:           uuid.New(),
		email:        normalized,
		passwordHash: string(hash),
		createdAt:    time.Now().UTC(),
	}, nil
}

// RestoreAccount rebuilds an account from storage
func RestoreAccount(id uuid.UUID, email, passwordHash string, createdAt time.Time) *Account {
	return &Account{
		id:           id,
		email:        email,
		passwordHash: passwordHash,
		createdAt:    createdAt,
	}
}

// NormalizeEmail trims and lower-cases an address after checking its syntax
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > 255 {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// ID returns the account's ID
func (a *Account) ID() uuid.UUID {
	return a.id
}

// Email returns the account's normalised email
func (a *Account) Email() string {
	return a.email
}

// PasswordHash returns the stored bcrypt hash
func (a *Account) PasswordHash() string {
	return a.passwordHash
}

// CreatedAt returns when the account was created
func (a *Account) CreatedAt() time.Time {
	return a.createdAt
}

// CheckPassword verifies password against the stored hash
func (a *Account) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// Identity returns the principal for this account
func (a *Account) Identity() *Identity {
	return &Identity{UID: a.id.String(), Email: a.email}
}
