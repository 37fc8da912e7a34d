package mocks

import (
	"sync"

	"github.com/custodia-labs/gymcrm-auth/internal/core/ports/driven"
)

var _ driven.LoginGuard = (*MockLoginGuard)(nil)

// MockLoginGuard records calls and reports a fixed blocked state
type MockLoginGuard struct {
	mu        sync.Mutex
	Blocked   map[string]int // principal -> retry-after seconds
	Failures  map[string]int
	Successes map[string]int
}

// NewMockLoginGuard creates a new MockLoginGuard
func NewMockLoginGuard() *MockLoginGuard {
	return &MockLoginGuard{
		Blocked:   make(map[string]int),
		Failures:  make(map[string]int),
		Successes: make(map[string]int),
	}
}

func (m *MockLoginGuard) IsBlocked(principal string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Blocked[principal]
	return ok
}

func (m *MockLoginGuard) RetryAfterSeconds(principal string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Blocked[principal]
}

func (m *MockLoginGuard) RegisterFailure(principal string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures[principal]++
}

func (m *MockLoginGuard) RegisterSuccess(principal string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Successes[principal]++
	delete(m.Blocked, principal)
}

// FailureCount returns recorded failures for principal
func (m *MockLoginGuard) FailureCount(principal string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Failures[principal]
}

// SuccessCount returns recorded successes for principal
func (m *MockLoginGuard) SuccessCount(principal string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Successes[principal]
}
