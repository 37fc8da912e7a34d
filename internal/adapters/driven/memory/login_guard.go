package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
	"github.com/custodia-labs/gymcrm-auth/internal/core/ports/driven"
	"github.com/custodia-labs/gymcrm-auth/internal/metrics"
)

// Verify interface compliance
var _ driven.LoginGuard = (*LoginGuard)(nil)

// LoginGuard is an in-process fixed-window brute-force guard.
// State is keyed by principal and lost on restart.
type LoginGuard struct {
	maxAttempts   int
	blockDuration time.Duration
	now           func() time.Time
	logger        *slog.Logger

	mu     sync.Mutex
	states map[string]*domain.LoginAttemptState
}

// LoginGuardConfig holds configuration for the guard.
type LoginGuardConfig struct {
	MaxAttempts   int
	BlockDuration time.Duration
	Now           func() time.Time // defaults to time.Now
	Logger        *slog.Logger
}

// NewLoginGuard creates a guard. MaxAttempts and BlockDuration must be positive.
func NewLoginGuard(cfg LoginGuardConfig) (*LoginGuard, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("login guard: max attempts must be positive")
	}
	if cfg.BlockDuration <= 0 {
		return nil, errors.New("login guard: block duration must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &LoginGuard{
		maxAttempts:   cfg.MaxAttempts,
		blockDuration: cfg.BlockDuration,
		now:           now,
		logger:        logger,
		states:        make(map[string]*domain.LoginAttemptState),
	}, nil
}

// IsBlocked reports whether the principal is locked out right now
func (g *LoginGuard) IsBlocked(principal string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.states[principal]
	return ok && state.IsBlocked(g.now())
}

// RetryAfterSeconds returns the remaining lockout rounded up to whole
// seconds, never 0 while still blocked.
func (g *LoginGuard) RetryAfterSeconds(principal string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.states[principal]
	if !ok || state.BlockedUntil.IsZero() {
		return 0
	}

	remaining := state.BlockedUntil.Sub(g.now())
	if remaining <= 0 {
		return 0
	}

	seconds := int((remaining + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// RegisterFailure counts a failed attempt. Reaching the limit locks the
// principal for the block duration. A principal whose lock has lapsed
// starts again from zero.
func (g *LoginGuard) RegisterFailure(principal string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	state, ok := g.states[principal]
	if !ok {
		state = &domain.LoginAttemptState{}
		g.states[principal] = state
	} else if !state.BlockedUntil.IsZero() && !state.BlockedUntil.After(now) {
		*state = domain.LoginAttemptState{}
	}

	state.FailureCount++
	if state.FailureCount >= g.maxAttempts {
		state.BlockedUntil = now.Add(g.blockDuration)
		metrics.RecordLockout()
		g.logger.Warn("principal locked out",
			"username", principal,
			"failures", state.FailureCount,
			"blocked_until", state.BlockedUntil,
		)
		return
	}
	state.BlockedUntil = time.Time{}
}

// RegisterSuccess drops all state for the principal
func (g *LoginGuard) RegisterSuccess(principal string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.states, principal)
}

// State returns a copy of the stored state for principal
func (g *LoginGuard) State(principal string) (domain.LoginAttemptState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.states[principal]
	if !ok {
		return domain.LoginAttemptState{}, false
	}
	return *state, true
}

// Prune removes states whose lockout has lapsed and returns how many were
// removed. Failing-but-unblocked states are kept.
func (g *LoginGuard) Prune(ctx context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for principal, state := range g.states {
		if !state.BlockedUntil.IsZero() && !state.BlockedUntil.After(now) {
			delete(g.states, principal)
			removed++
		}
	}

	metrics.RecordSweep("login_guard", removed)
	return removed, nil
}

// Len returns the number of tracked principals
func (g *LoginGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.states)
}
