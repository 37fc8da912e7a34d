package driven

// LoginGuard tracks failed logins per principal and locks the principal
// out for a fixed window once the failure limit is reached.
type LoginGuard interface {
	// IsBlocked reports whether the principal is currently locked out
	IsBlocked(principal string) bool

	// RetryAfterSeconds is 0 when not blocked, otherwise at least 1
	RetryAfterSeconds(principal string) int

	// RegisterFailure counts one failed attempt, locking at the limit
	RegisterFailure(principal string)

	// RegisterSuccess clears all state for the principal
	RegisterSuccess(principal string)
}
