// Package auth provides password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, and it salts every hash on its own:
//   - a random salt is generated per call, so equal passwords hash differently
//   - the salt and cost are embedded in the output, so users.json only needs
//     one string per user
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 iterations)
//	 version
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used in production.
const DefaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer inputs would be silently
// truncated by the algorithm, so they are rejected instead.
const maxPasswordBytes = 72

var (
	// ErrPasswordTooLong is returned by Hash for inputs over 72 bytes.
	ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")

	// ErrPasswordMismatch is returned by Verify when the password is wrong.
	ErrPasswordMismatch = errors.New("auth: invalid password")
)

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected:
// tests use cost 4 (the bcrypt minimum) to keep each hash in the
// millisecond range.
type PasswordService struct {
	cost int

	// dummyHash is compared against when a login names an unknown email, so
	// that path costs the same as a wrong password for a real user.
	dummyHash []byte
}

// NewPasswordService creates a PasswordService with the given cost.
// A cost of 0 selects DefaultCost.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("organization-app-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: preparing dummy hash: %w", err)
	}
	return &PasswordService{cost: cost, dummyHash: dummy}, nil
}

// NewPasswordServiceForTest creates a PasswordService with bcrypt cost 4.
// Use this in tests in other packages. Do NOT use in production.
func NewPasswordServiceForTest() *PasswordService {
	ps, err := NewPasswordService(bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return ps
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained string like:
//
//	$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
//
// Returns ErrPasswordTooLong if the plaintext is over 72 bytes.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// Returns nil on a match, ErrPasswordMismatch on a wrong password, and a
// wrapped bcrypt error when the stored hash itself is unusable.
//
// bcrypt.CompareHashAndPassword compares in constant time, so the response
// time does not leak how much of the password was right.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// VerifyDummy burns one bcrypt comparison and always reports a mismatch.
// Callers use it when the account does not exist.
func (p *PasswordService) VerifyDummy(plaintext string) error {
	_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(plaintext))
	return ErrPasswordMismatch
}
