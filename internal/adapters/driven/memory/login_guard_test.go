package memory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock is a settable clock shared by the guard and store tests
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGuard(t *testing.T, clock *testClock, maxAttempts int, block time.Duration) *LoginGuard {
	t.Helper()
	g, err := NewLoginGuard(LoginGuardConfig{
		MaxAttempts:   maxAttempts,
		BlockDuration: block,
		Now:           clock.Now,
		Logger:        discardLogger(),
	})
	require.NoError(t, err)
	return g
}

func TestNewLoginGuard_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  LoginGuardConfig
	}{
		{"zero attempts", LoginGuardConfig{MaxAttempts: 0, BlockDuration: time.Minute}},
		{"negative attempts", LoginGuardConfig{MaxAttempts: -1, BlockDuration: time.Minute}},
		{"zero duration", LoginGuardConfig{MaxAttempts: 3}},
		{"negative duration", LoginGuardConfig{MaxAttempts: 3, BlockDuration: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewLoginGuard(tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, g)
		})
	}
}

func TestLoginGuard_UnknownPrincipal(t *testing.T) {
	g := newTestGuard(t, newTestClock(), 3, time.Minute)

	assert.False(t, g.IsBlocked("nobody"))
	assert.Equal(t, 0, g.RetryAfterSeconds("nobody"))
	_, ok := g.State("nobody")
	assert.False(t, ok)
}

func TestLoginGuard_BlocksAtMaxAttempts(t *testing.T) {
	clock := newTestClock()
	g := newTestGuard(t, clock, 3, 60*time.Second)

	g.RegisterFailure("alice")
	g.RegisterFailure("alice")
	assert.False(t, g.IsBlocked("alice"))

	state, ok := g.State("alice")
	require.True(t, ok)
	assert.Equal(t, 2, state.FailureCount)
	assert.True(t, state.BlockedUntil.IsZero())

	g.RegisterFailure("alice")
	assert.True(t, g.IsBlocked("alice"))
	assert.Equal(t, 60, g.RetryAfterSeconds("alice"))

	state, _ = g.State("alice")
	assert.Equal(t, 3, state.FailureCount)
	assert.Equal(t, clock.Now().Add(60*time.Second), state.BlockedUntil)

	// Other principals are unaffected
	assert.False(t, g.IsBlocked("bob"))
}

func TestLoginGuard_StaysBlockedUntilWindowLapses(t *testing.T) {
	clock := newTestClock()
	g := newTestGuard(t, clock, 3, 60*time.Second)

	for i := 0; i < 3; i++ {
		g.RegisterFailure("alice")
	}

	clock.Advance(59 * time.Second)
	assert.True(t, g.IsBlocked("alice"))
	assert.Equal(t, 1, g.RetryAfterSeconds("alice"))

	clock.Advance(time.Second)
	assert.False(t, g.IsBlocked("alice"))
	assert.Equal(t, 0, g.RetryAfterSeconds("alice"))
}

func TestLoginGuard_RetryAfterRoundsUp(t *testing.T) {
	clock := newTestClock()
	g := newTestGuard(t, clock, 1, 10*time.Second)

	g.RegisterFailure("alice")

	clock.Advance(2500 * time.Millisecond)
	assert.Equal(t, 8, g.RetryAfterSeconds("alice"))

	clock.Advance(7400 * time.Millisecond)
	assert.True(t, g.IsBlocked("alice"))
	assert.Equal(t, 1, g.RetryAfterSeconds("alice"))
}

func TestLoginGuard_SuccessClearsState(t *testing.T) {
	clock := newTestClock()
	g := newTestGuard(t, clock, 3, time.Minute)

	g.RegisterFailure("alice")
	g.RegisterFailure("alice")
	g.RegisterSuccess("alice")

	_, ok := g.State("alice")
	assert.False(t, ok)

	// A fresh allowance after success
	g.RegisterFailure("alice")
	g.RegisterFailure("alice")
	assert.False(t, g.IsBlocked("alice"))

	// Success also lifts an active block
	g.RegisterFailure("alice")
	require.True(t, g.IsBlocked("alice"))
	g.RegisterSuccess("alice")
	assert.False(t, g.IsBlocked("alice"))

	// Idempotent
	g.RegisterSuccess("alice")
	assert.Equal(t, 0, g.Len())
}

func TestLoginGuard_FreshAllowanceAfterLapse(t *testing.T) {
	clock := newTestClock()
	g := newTestGuard(t, clock, 3, time.Minute)

	for i := 0; i < 3; i++ {
		g.RegisterFailure("alice")
	}
	clock.Advance(time.Minute + time.Second)

	g.RegisterFailure("alice")
	assert.False(t, g.IsBlocked("alice"))

	state, _ := g.State("alice")
	assert.Equal(t, 1, state.FailureCount)
}

func TestLoginGuard_ConcurrentFailures(t *testing.T) {
	clock := newTestClock()
	const workers = 50
	g := newTestGuard(t, clock, workers*2, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.RegisterFailure("alice")
		}()
	}
	wg.Wait()

	state, ok := g.State("alice")
	require.True(t, ok)
	assert.Equal(t, workers, state.FailureCount)
	assert.False(t, g.IsBlocked("alice"))
}

func TestLoginGuard_Prune(t *testing.T) {
	clock := newTestClock()
	g := newTestGuard(t, clock, 2, time.Minute)

	g.RegisterFailure("locked")
	g.RegisterFailure("locked")
	g.RegisterFailure("failing")
	require.Equal(t, 2, g.Len())

	n, err := g.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	clock.Advance(2 * time.Minute)
	n, err = g.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := g.State("locked")
	assert.False(t, ok)
	_, ok = g.State("failing")
	assert.True(t, ok)
}
