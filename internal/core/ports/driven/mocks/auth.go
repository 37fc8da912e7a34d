package mocks

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
	"github.com/custodia-labs/gymcrm-auth/internal/core/ports/driven"
)

// Ensure mocks implement the driven ports
var (
	_ driven.PasswordHasher = (*MockPasswordHasher)(nil)
	_ driven.TokenCodec     = (*MockTokenCodec)(nil)
)

// MockPasswordHasher uses plain text comparison.
// NOT secure - only for testing.
type MockPasswordHasher struct{}

// NewMockPasswordHasher creates a new MockPasswordHasher
func NewMockPasswordHasher() *MockPasswordHasher {
	return &MockPasswordHasher{}
}

// Hash returns the password as-is (for testing only)
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	return password, nil
}

// Matches compares password with hash directly (for testing only)
func (m *MockPasswordHasher) Matches(password, hash string) bool {
	return password == hash
}

// MockTokenCodec encodes tokens as base64 JSON without a signature.
// Expiry is still enforced against Now.
type MockTokenCodec struct {
	mu     sync.Mutex
	seq    int
	Issuer string
	Now    func() time.Time
}

// NewMockTokenCodec creates a new MockTokenCodec
func NewMockTokenCodec() *MockTokenCodec {
	return &MockTokenCodec{Issuer: "test-issuer", Now: time.Now}
}

// Issue creates a base64-encoded JSON token
func (m *MockTokenCodec) Issue(subject string, ttl time.Duration, claims domain.Claims) (string, *domain.Token, error) {
	m.mu.Lock()
	m.seq++
	id := fmt.Sprintf("jti-%d", m.seq)
	m.mu.Unlock()

	now := m.Now().UTC().Truncate(time.Second)
	token := &domain.Token{
		Subject:   subject,
		Issuer:    m.Issuer,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		TokenID:   id,
		Claims:    claims,
	}

	data, err := json.Marshal(token)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), token, nil
}

// Verify decodes a base64-encoded JSON token and checks expiry and issuer
func (m *MockTokenCodec) Verify(raw string) (*domain.Token, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	var token domain.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if token.Issuer != m.Issuer || token.IsExpired(m.Now()) {
		return nil, domain.ErrTokenInvalid
	}

	return &token, nil
}
