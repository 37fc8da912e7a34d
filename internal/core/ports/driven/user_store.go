package driven

import (
	"context"

	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
)

// UserStore is the user directory consulted for credentials (PostgreSQL)
type UserStore interface {
	// FindByUsername retrieves a user, or domain.ErrNotFound
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// UpdatePassword replaces the stored password hash
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
