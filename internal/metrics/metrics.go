// Package metrics holds the Prometheus collectors for the auth core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes recorded by RecordLogin.
const (
	OutcomeSuccess            = "success"
	OutcomeLocked             = "locked"
	OutcomeNotFound           = "not_found"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInactive           = "inactive"
	OutcomeError              = "error"
)

var (
	// loginAttempts counts login attempts by outcome.
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymcrm_auth_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// lockouts counts principals that reached the failure limit.
	lockouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gymcrm_auth_lockouts_total",
		Help: "Total number of brute-force lockouts",
	})

	// revocations counts tokens revoked on logout or password change.
	revocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gymcrm_auth_token_revocations_total",
		Help: "Total number of revoked tokens",
	})

	// gateRejections counts requests refused because their token was revoked.
	gateRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gymcrm_auth_gate_rejections_total",
		Help: "Total number of requests rejected for carrying a revoked token",
	})

	// revokedTokens is the current number of revocation entries.
	revokedTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gymcrm_auth_revoked_tokens",
		Help: "Number of revocation entries currently held in memory",
	})

	// sweepRemovals counts entries evicted by maintenance sweeps.
	sweepRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymcrm_auth_sweep_removals_total",
		Help: "Total number of stale entries removed by background sweeps",
	}, []string{"store"})
)

// RecordLogin increments the login counter for outcome.
func RecordLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordLockout increments the lockout counter.
func RecordLockout() {
	lockouts.Inc()
}

// RecordRevocation increments the revocation counter.
func RecordRevocation() {
	revocations.Inc()
}

// RecordGateRejection increments the gate rejection counter.
func RecordGateRejection() {
	gateRejections.Inc()
}

// SetRevokedTokens sets the revocation entry gauge.
func SetRevokedTokens(n int) {
	revokedTokens.Set(float64(n))
}

// RecordSweep adds n removals for store.
func RecordSweep(store string, n int) {
	if n > 0 {
		sweepRemovals.WithLabelValues(store).Add(float64(n))
	}
}
