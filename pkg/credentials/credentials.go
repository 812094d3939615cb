package credentials

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords. Stored hashes are opaque to callers.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// Bcrypt is the production Hasher.
type Bcrypt struct {
	Cost int
}

// NewBcrypt returns a bcrypt hasher at the default cost.
func NewBcrypt() *Bcrypt { return &Bcrypt{Cost: bcrypt.DefaultCost} }

func (b *Bcrypt) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (b *Bcrypt) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Check evaluates a login attempt against a stored account. The role is only
// compared when one was supplied. Both checks always run so the outcome does
// not reveal which one failed.
func Check(h Hasher, password, storedHash, role, storedRole string) bool {
	roleOK := true
	if strings.TrimSpace(role) != "" {
		roleOK = storedRole != "" && strings.EqualFold(storedRole, role)
	}
	passwordOK := h.Verify(password, storedHash)
	return roleOK && passwordOK
}
