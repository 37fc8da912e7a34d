package domain

import "time"

// Token is the decoded form of an issued access token.
// It is immutable once issued and never persisted.
type Token struct {
	Subject   string    `json:"sub"`
	Issuer    string    `json:"iss"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	TokenID   string    `json:"jti"`
	Claims    Claims    `json:"claims"`
}

// IsExpired reports whether the token is no longer valid at now
func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Claims is the fixed set of non-registered claims carried by a token
type Claims struct {
	Role Role `json:"role,omitempty"`
}

// AuthContext contains authenticated principal info for request context
type AuthContext struct {
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAuthContext builds an AuthContext from a verified token
func NewAuthContext(t *Token) *AuthContext {
	return &AuthContext{
		Username:  t.Subject,
		Role:      t.Claims.Role,
		TokenID:   t.TokenID,
		ExpiresAt: t.ExpiresAt,
	}
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username" example:"ali.veli"`
	Password string `json:"password" example:"securePass123"`
}

// LoginResponse is returned after successful authentication.
// ExpiresAt is RFC 3339 in UTC.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt" example:"2026-10-17T12:00:00Z"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	Username    string `json:"username" example:"ali.veli"`
	OldPassword string `json:"oldPassword" example:"oldPass123"`
	NewPassword string `json:"newPassword" example:"newSecurePass456"`
}

// LoginAttemptState tracks consecutive failed logins for one principal.
// BlockedUntil is zero unless FailureCount reached the configured maximum.
type LoginAttemptState struct {
	FailureCount int
	BlockedUntil time.Time
}

// IsBlocked reports whether the principal is locked out at now
func (s LoginAttemptState) IsBlocked(now time.Time) bool {
	return !s.BlockedUntil.IsZero() && s.BlockedUntil.After(now)
}

// RevocationEntry marks a token id as revoked until ExpiresAt
type RevocationEntry struct {
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
