package driven

import (
	"context"
	"time"
)

// RevocationStore records token ids invalidated before their natural expiry.
// Entries disappear once expiresAt has passed.
type RevocationStore interface {
	// Revoke marks tokenID revoked until expiresAt. Revoking twice only
	// refreshes the stored expiry.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error

	// IsRevoked reports whether tokenID is revoked and not yet expired
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
