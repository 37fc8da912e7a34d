package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested user does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials indicates wrong username/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountInactive indicates correct credentials for a disabled account
	ErrAccountInactive = errors.New("account is not active")

	// ErrPasswordMismatch indicates the old password did not match on change
	ErrPasswordMismatch = errors.New("old password is invalid")

	// ErrPasswordUnchanged indicates the new password equals the current one
	ErrPasswordUnchanged = errors.New("new password cannot be same as old password")

	// ErrTokenInvalid indicates the token failed signature, expiry or issuer checks
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenRevoked indicates a valid token whose id has been revoked
	ErrTokenRevoked = errors.New("token revoked")

	// ErrStoreClosed indicates the store was used after shutdown
	ErrStoreClosed = errors.New("store closed")
)

// AccountLockedError is returned when the brute-force guard refuses a login.
// It is an expected outcome under attack, not an internal failure.
type AccountLockedError struct {
	Username          string
	RetryAfterSeconds int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked: retry after %d seconds", e.RetryAfterSeconds)
}
