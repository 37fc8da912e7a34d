package driven

import (
	"time"

	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
)

// PasswordHasher hashes and checks passwords.
// This does NOT handle storage - use UserStore for persistence.
type PasswordHasher interface {
	// Hash returns a one-way hash of the plaintext password
	Hash(password string) (string, error)

	// Matches reports whether password hashes to hash
	Matches(password, hash string) bool
}

// TokenCodec issues and verifies signed access tokens.
// Verify always checks signature, expiry and issuer; there is no
// decode-only mode.
type TokenCodec interface {
	// Issue signs a new token for subject valid for ttl
	Issue(subject string, ttl time.Duration, claims domain.Claims) (string, *domain.Token, error)

	// Verify decodes token and returns domain.ErrTokenInvalid on any failure
	Verify(token string) (*domain.Token, error)
}
