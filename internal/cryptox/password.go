// Package cryptox wraps the password hashing primitive used by the
// credential store.
package cryptox

import "golang.org/x/crypto/bcrypt"

// PasswordHasher turns a plaintext password into a salted one-way digest and
// checks candidates against it.
type PasswordHasher interface {
	Hash(password []byte) ([]byte, error)
	Verify(password, digest []byte) bool
}

// BcryptHasher implements PasswordHasher with bcrypt. The salt is embedded
// in the digest.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. Values outside
// bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, h.cost)
}

func (h *BcryptHasher) Verify(password, digest []byte) bool {
	err := bcrypt.CompareHashAndPassword(digest, password)
	return err == nil
}
