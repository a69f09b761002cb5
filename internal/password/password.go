// Package password hashes and verifies user passwords with bcrypt. The bcrypt
// digest embeds its own salt and cost, so Verify needs nothing but the digest.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the bcrypt input limit; longer passwords would be silently
// truncated by the algorithm, so they are rejected instead.
const MaxLength = 72

var (
	ErrEmpty   = errors.New("password must not be empty")
	ErrTooLong = errors.New("password must be at most 72 bytes")
)

type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	if err := Check(plaintext); err != nil {
		return "", err
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is a
// mismatch, not an error.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if plaintext == "" || digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

func Check(plaintext string) error {
	switch {
	case plaintext == "":
		return ErrEmpty
	case len(plaintext) > MaxLength:
		return ErrTooLong
	}
	return nil
}
