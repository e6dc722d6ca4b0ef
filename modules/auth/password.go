package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost balances hash strength against login latency.
const DefaultBcryptCost = 12

// PasswordHasher derives and checks bcrypt password hashes at a cost
// fixed at construction time.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the default cost.
func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(DefaultBcryptCost)
}

// NewPasswordHasherWithCost creates a hasher with an explicit cost.
// Costs outside bcrypt's supported range fall back to the default.
func NewPasswordHasherWithCost(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives a bcrypt hash of the password at the configured cost.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify reports whether the password matches the stored hash. The cost
// is read from the hash itself, so hashes stored under an older cost
// keep verifying after the configured cost changes.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
