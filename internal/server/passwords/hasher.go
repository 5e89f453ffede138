package passwords

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and checks passwords with bcrypt.
type Hasher struct {
	cost      int
	dummyHash []byte
}

// NewHasher builds a Hasher. The dummy hash is computed once at the same cost
// so that comparisons against unknown users take as long as real ones.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("testmart-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt: %w", err)
	}
	return &Hasher{cost: cost, dummyHash: dummy}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. A malformed hash is an error;
// a plain mismatch is not. Passwords longer than MaxBytes never match, since
// Hash refuses them.
func (h *Hasher) Verify(hash, password string) (bool, error) {
	if len(password) > MaxBytes {
		_ = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password[:MaxBytes]))
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt: %w", err)
	}
}

// DummyVerify burns the same work as Verify for a user that does not exist.
func (h *Hasher) DummyVerify(password string) {
	if len(password) > MaxBytes {
		password = password[:MaxBytes]
	}
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
