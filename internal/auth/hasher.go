package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt work factor used when callers have no
// reason to pick their own. Hashing with it takes around 250ms on current
// server hardware, which is enough to make offline guessing expensive.
const DefaultHashCost = 12

// ErrInvalidInput is returned on hasher misuse: empty password or a cost
// factor outside of the allowed bcrypt range.
var ErrInvalidInput = errors.New("invalid password hashing input")

// HashPassword hashes the given password with bcrypt and the given cost
// factor. The returned value is a self-describing modular crypt string
// (algorithm tag, cost, salt, digest); a fresh salt is generated internally
// on every call, so equal inputs produce different outputs.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidInput)
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf(
			"%w: cost %d out of range [%d, %d]",
			ErrInvalidInput, cost, bcrypt.MinCost, bcrypt.MaxCost,
		)
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("generate password hash: %w", err)
	}

	return string(hashBytes), nil
}

// CheckPasswordHash reports whether password matches the stored hash.
// It never panics or returns an error: an empty password, an empty stored
// value, or a value without a recognized bcrypt prefix yields false without
// any comparison work. The digest comparison itself is constant-time,
// done inside x/crypto/bcrypt.
func CheckPasswordHash(password, storedHash string) bool {
	if password == "" || !looksLikeBcrypt(storedHash) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}

// bcrypt hashes start with $2a$, $2b$, or $2y$
func looksLikeBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
