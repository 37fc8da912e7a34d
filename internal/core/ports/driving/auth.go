package driving

import (
	"context"

	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
)

// AuthService handles login, logout and password changes
type AuthService interface {
	// Login checks the brute-force guard and credentials, then issues a token
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// Logout revokes the given token. Invalid or empty tokens are a no-op.
	Logout(ctx context.Context, token string) error

	// ChangePassword verifies the old password and stores a new hash
	ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error

	// ValidateToken verifies a token and rejects revoked ones
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
