package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
	"github.com/custodia-labs/gymcrm-auth/internal/core/ports/driven"
	"github.com/custodia-labs/gymcrm-auth/internal/metrics"
	"github.com/custodia-labs/gymcrm-auth/internal/worker"
)

// Verify interface compliance
var _ driven.RevocationStore = (*RevocationStore)(nil)

// DefaultSweepInterval is used when no interval is configured
const DefaultSweepInterval = 60 * time.Second

// RevocationStore keeps revoked token ids in memory until their expiry.
// Entries are removed lazily on lookup and by a background sweep that
// starts with the store and stops on Close.
type RevocationStore struct {
	entries sync.Map // token id -> time.Time
	size    atomic.Int64
	closed  atomic.Bool
	now     func() time.Time
	logger  *slog.Logger
	sweeper *worker.Worker

	closeOnce sync.Once
}

// RevocationStoreConfig holds configuration for the store.
type RevocationStoreConfig struct {
	SweepInterval time.Duration    // defaults to DefaultSweepInterval
	Now           func() time.Time // defaults to time.Now
	Logger        *slog.Logger
}

// NewRevocationStore creates a store and starts its sweeper
func NewRevocationStore(cfg RevocationStoreConfig) (*RevocationStore, error) {
	interval := cfg.SweepInterval
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	if interval < 0 {
		return nil, errors.New("revocation store: sweep interval must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &RevocationStore{
		now:    now,
		logger: logger,
	}

	sweeper, err := worker.NewWorker(worker.WorkerConfig{
		Jobs: []worker.Job{{
			Name:     "revocation-sweep",
			Interval: interval,
			Run:      s.Sweep,
		}},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	s.sweeper = sweeper

	if err := sweeper.Start(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Revoke stores tokenID until expiresAt, overwriting any previous expiry
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if tokenID == "" {
		return domain.ErrInvalidInput
	}

	if _, loaded := s.entries.Swap(tokenID, expiresAt); !loaded {
		metrics.SetRevokedTokens(int(s.size.Add(1)))
	}
	return nil
}

// IsRevoked reports whether tokenID is revoked and its expiry is still
// ahead. An expired entry is deleted on the way out.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.closed.Load() {
		return false, domain.ErrStoreClosed
	}

	value, ok := s.entries.Load(tokenID)
	if !ok {
		return false, nil
	}

	expiresAt := value.(time.Time)
	if expiresAt.After(s.now()) {
		return true, nil
	}

	// A concurrent Revoke may have refreshed the entry
	if s.entries.CompareAndDelete(tokenID, value) {
		metrics.SetRevokedTokens(int(s.size.Add(-1)))
	}
	return false, nil
}

// Sweep removes every entry whose expiry has passed and returns how many
// were removed. It is the body of the background job and may be called
// directly.
func (s *RevocationStore) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0

	s.entries.Range(func(key, value any) bool {
		if ctx.Err() != nil {
			return false
		}
		if !value.(time.Time).After(now) && s.entries.CompareAndDelete(key, value) {
			s.size.Add(-1)
			removed++
		}
		return true
	})

	metrics.SetRevokedTokens(int(s.size.Load()))
	metrics.RecordSweep("revocation_store", removed)
	if removed > 0 {
		s.logger.Debug("revocation sweep", "removed", removed, "remaining", s.size.Load())
	}
	return removed, ctx.Err()
}

// Len returns the number of stored entries, expired or not
func (s *RevocationStore) Len() int {
	return int(s.size.Load())
}

// Close stops the sweeper. Later calls to Revoke and IsRevoked return
// domain.ErrStoreClosed.
func (s *RevocationStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.sweeper.Stop()
	})
	return nil
}
