package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
	"github.com/custodia-labs/gymcrm-auth/internal/core/ports/driven"
	"github.com/custodia-labs/gymcrm-auth/internal/core/ports/driving"
	"github.com/custodia-labs/gymcrm-auth/internal/metrics"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// DefaultTokenTTL is the access token lifetime when none is configured
const DefaultTokenTTL = time.Hour

// authService implements the AuthService interface
type authService struct {
	users       driven.UserStore
	hasher      driven.PasswordHasher
	codec       driven.TokenCodec
	guard       driven.LoginGuard
	revocations driven.RevocationStore
	tokenTTL    time.Duration
	logger      *slog.Logger
}

// AuthServiceConfig holds the collaborators of the auth service.
type AuthServiceConfig struct {
	Users       driven.UserStore
	Hasher      driven.PasswordHasher
	Codec       driven.TokenCodec
	Guard       driven.LoginGuard
	Revocations driven.RevocationStore
	TokenTTL    time.Duration // defaults to DefaultTokenTTL
	Logger      *slog.Logger
}

// NewAuthService creates a new AuthService.
// Every collaborator is required.
func NewAuthService(cfg AuthServiceConfig) (driving.AuthService, error) {
	if cfg.Users == nil || cfg.Hasher == nil || cfg.Codec == nil || cfg.Guard == nil || cfg.Revocations == nil {
		return nil, errors.New("auth service: missing collaborator")
	}

	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < time.Second {
		return nil, errors.New("auth service: token ttl must be at least 1s")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &authService{
		users:       cfg.Users,
		hasher:      cfg.Hasher,
		codec:       cfg.Codec,
		guard:       cfg.Guard,
		revocations: cfg.Revocations,
		tokenTTL:    ttl,
		logger:      logger,
	}, nil
}

// Login runs the guard check, directory lookup and credential check, then
// issues a token. A locked principal never reaches the directory.
func (s *authService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Username == "" {
		return nil, domain.ErrInvalidInput
	}

	// A locked principal is refused whatever the password
	if s.guard.IsBlocked(req.Username) {
		retryAfter := s.guard.RetryAfterSeconds(req.Username)
		metrics.RecordLogin(metrics.OutcomeLocked)
		s.logger.Warn("login refused, principal locked", "username", req.Username, "retry_after", retryAfter)
		return nil, &domain.AccountLockedError{Username: req.Username, RetryAfterSeconds: retryAfter}
	}

	if req.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordLogin(metrics.OutcomeNotFound)
			s.logger.Info("login for unknown user", "username", req.Username)
			return nil, domain.ErrNotFound
		}
		metrics.RecordLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Matches(req.Password, user.PasswordHash) {
		s.guard.RegisterFailure(req.Username)
		metrics.RecordLogin(metrics.OutcomeInvalidCredentials)
		s.logger.Info("login with invalid credentials", "username", req.Username)
		return nil, domain.ErrInvalidCredentials
	}

	// Valid credential on a disabled account does not count as a failure
	if !user.Active {
		metrics.RecordLogin(metrics.OutcomeInactive)
		s.logger.Info("login for inactive account", "username", req.Username)
		return nil, domain.ErrAccountInactive
	}

	s.guard.RegisterSuccess(req.Username)

	raw, token, err := s.codec.Issue(user.Username, s.tokenTTL, domain.Claims{Role: domain.RoleUser})
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.RecordLogin(metrics.OutcomeSuccess)
	s.logger.Info("login succeeded", "username", user.Username, "token_id", token.TokenID)

	return &domain.LoginResponse{
		Token:     raw,
		ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Logout revokes the token until its natural expiry.
// Empty, malformed and expired tokens are accepted as a no-op.
func (s *authService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}

	token, err := s.codec.Verify(raw)
	if err != nil {
		// Already invalid, nothing to do
		return nil
	}
	if token.TokenID == "" {
		return nil
	}

	if err := s.revocations.Revoke(ctx, token.TokenID, token.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	metrics.RecordRevocation()
	s.logger.Info("token revoked", "username", token.Subject, "token_id", token.TokenID)
	return nil
}

// ChangePassword verifies the old password and stores the hash of the new one
func (s *authService) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	if req.Username == "" || req.OldPassword == "" || req.NewPassword == "" {
		return domain.ErrInvalidInput
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Matches(req.OldPassword, user.PasswordHash) {
		s.logger.Info("password change with wrong old password", "username", req.Username)
		return domain.ErrPasswordMismatch
	}

	// Compared against the stored hash, not the submitted old password
	if s.hasher.Matches(req.NewPassword, user.PasswordHash) {
		return domain.ErrPasswordUnchanged
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.Username, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password changed", "username", user.Username)
	return nil
}

// ValidateToken verifies signature, expiry and issuer, then checks revocation
func (s *authService) ValidateToken(ctx context.Context, raw string) (*domain.AuthContext, error) {
	if raw == "" {
		return nil, domain.ErrTokenInvalid
	}

	token, err := s.codec.Verify(raw)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if token.TokenID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, token.TokenID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, domain.ErrTokenRevoked
		}
	}

	return domain.NewAuthContext(token), nil
}
