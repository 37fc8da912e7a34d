package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
	"github.com/custodia-labs/gymcrm-auth/internal/core/ports/driven/mocks"
)

type testDeps struct {
	users       *mocks.MockUserStore
	hasher      *mocks.MockPasswordHasher
	codec       *mocks.MockTokenCodec
	guard       *mocks.MockLoginGuard
	revocations *mocks.MockRevocationStore
}

func newTestAuthService(t *testing.T) (*testDeps, *authService) {
	t.Helper()
	deps := &testDeps{
		users:       mocks.NewMockUserStore(),
		hasher:      mocks.NewMockPasswordHasher(),
		codec:       mocks.NewMockTokenCodec(),
		guard:       mocks.NewMockLoginGuard(),
		revocations: mocks.NewMockRevocationStore(),
	}
	svc, err := NewAuthService(AuthServiceConfig{
		Users:       deps.users,
		Hasher:      deps.hasher,
		Codec:       deps.codec,
		Guard:       deps.guard,
		Revocations: deps.revocations,
		TokenTTL:    time.Hour,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return deps, svc.(*authService)
}

// mockUserDirectory is a testify mock for directory failure paths
type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserDirectory) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	return m.Called(ctx, username, passwordHash).Error(0)
}

func TestNewAuthService_MissingCollaborators(t *testing.T) {
	full := AuthServiceConfig{
		Users:       mocks.NewMockUserStore(),
		Hasher:      mocks.NewMockPasswordHasher(),
		Codec:       mocks.NewMockTokenCodec(),
		Guard:       mocks.NewMockLoginGuard(),
		Revocations: mocks.NewMockRevocationStore(),
	}

	tests := []struct {
		name   string
		mutate func(*AuthServiceConfig)
	}{
		{"nil users", func(c *AuthServiceConfig) { c.Users = nil }},
		{"nil hasher", func(c *AuthServiceConfig) { c.Hasher = nil }},
		{"nil codec", func(c *AuthServiceConfig) { c.Codec = nil }},
		{"nil guard", func(c *AuthServiceConfig) { c.Guard = nil }},
		{"nil revocations", func(c *AuthServiceConfig) { c.Revocations = nil }},
		{"negative ttl", func(c *AuthServiceConfig) { c.TokenTTL = -time.Second }},
		{"sub-second ttl", func(c *AuthServiceConfig) { c.TokenTTL = 500 * time.Millisecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.mutate(&cfg)
			svc, err := NewAuthService(cfg)
			assert.Error(t, err)
			assert.Nil(t, svc)
		})
	}

	svc, err := NewAuthService(full)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, svc.(*authService).tokenTTL)
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.LoginRequest
		wantErr error
	}{
		{"valid credentials", domain.LoginRequest{Username: "alice", Password: "secret"}, nil},
		{"empty username", domain.LoginRequest{Password: "secret"}, domain.ErrInvalidInput},
		{"empty password", domain.LoginRequest{Username: "alice"}, domain.ErrInvalidInput},
		{"wrong password", domain.LoginRequest{Username: "alice", Password: "nope"}, domain.ErrInvalidCredentials},
		{"unknown user", domain.LoginRequest{Username: "mallory", Password: "secret"}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, svc := newTestAuthService(t)
			deps.users.Add(&domain.User{Username: "alice", PasswordHash: "secret", Active: true})

			resp, err := svc.Login(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.NotEmpty(t, resp.Token)

			expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

			token, err := deps.codec.Verify(resp.Token)
			require.NoError(t, err)
			assert.Equal(t, "alice", token.Subject)
			assert.Equal(t, domain.RoleUser, token.Claims.Role)
		})
	}
}

func TestAuthService_Login_GuardInteraction(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password registers failure", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		deps.users.Add(&domain.User{Username: "alice", PasswordHash: "secret", Active: true})

		_, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "bad"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.Equal(t, 1, deps.guard.FailureCount("alice"))
		assert.Equal(t, 0, deps.guard.SuccessCount("alice"))
	})

	t.Run("success registers success", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		deps.users.Add(&domain.User{Username: "alice", PasswordHash: "secret", Active: true})

		_, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, 1, deps.guard.SuccessCount("alice"))
	})

	t.Run("unknown user does not register failure", func(t *testing.T) {
		deps, svc := newTestAuthService(t)

		_, err := svc.Login(ctx, domain.LoginRequest{Username: "ghost", Password: "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 0, deps.guard.FailureCount("ghost"))
	})

	t.Run("inactive account is not a failure", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		deps.users.Add(&domain.User{Username: "carol", PasswordHash: "secret", Active: false})

		_, err := svc.Login(ctx, domain.LoginRequest{Username: "carol", Password: "secret"})
		assert.ErrorIs(t, err, domain.ErrAccountInactive)
		assert.Equal(t, 0, deps.guard.FailureCount("carol"))
		assert.Equal(t, 0, deps.guard.SuccessCount("carol"))
	})

	t.Run("inactive account with wrong password is a failure", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		deps.users.Add(&domain.User{Username: "carol", PasswordHash: "secret", Active: false})

		_, err := svc.Login(ctx, domain.LoginRequest{Username: "carol", Password: "bad"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.Equal(t, 1, deps.guard.FailureCount("carol"))
	})
}

func TestAuthService_Login_LockedSkipsDirectory(t *testing.T) {
	directory := &mockUserDirectory{}
	guard := mocks.NewMockLoginGuard()
	guard.Blocked["alice"] = 42

	svc, err := NewAuthService(AuthServiceConfig{
		Users:       directory,
		Hasher:      mocks.NewMockPasswordHasher(),
		Codec:       mocks.NewMockTokenCodec(),
		Guard:       guard,
		Revocations: mocks.NewMockRevocationStore(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), domain.LoginRequest{Username: "alice", Password: "secret"})
	assert.Nil(t, resp)

	var locked *domain.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 42, locked.RetryAfterSeconds)
	assert.Equal(t, "alice", locked.Username)

	directory.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
}

func TestAuthService_Login_LockedWithEmptyPassword(t *testing.T) {
	deps, svc := newTestAuthService(t)
	deps.users.Add(&domain.User{Username: "alice", PasswordHash: "secret", Active: true})
	deps.guard.Blocked["alice"] = 30

	_, err := svc.Login(context.Background(), domain.LoginRequest{Username: "alice"})

	var locked *domain.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 30, locked.RetryAfterSeconds)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, deps.guard.FailureCount("alice"))
}

func TestAuthService_Login_DirectoryFailure(t *testing.T) {
	boom := errors.New("connection refused")
	directory := &mockUserDirectory{}
	directory.On("FindByUsername", mock.Anything, "alice").Return(nil, boom)

	svc, err := NewAuthService(AuthServiceConfig{
		Users:       directory,
		Hasher:      mocks.NewMockPasswordHasher(),
		Codec:       mocks.NewMockTokenCodec(),
		Guard:       mocks.NewMockLoginGuard(),
		Revocations: mocks.NewMockRevocationStore(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), domain.LoginRequest{Username: "alice", Password: "secret"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	directory.AssertExpectations(t)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes until natural expiry", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		raw, token, err := deps.codec.Issue("bob", time.Hour, domain.Claims{})
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, raw))

		expiresAt, ok := deps.revocations.ExpiresAt(token.TokenID)
		require.True(t, ok)
		assert.Equal(t, token.ExpiresAt, expiresAt)
	})

	t.Run("twice is idempotent", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		raw, _, err := deps.codec.Issue("bob", time.Hour, domain.Claims{})
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, raw))
		require.NoError(t, svc.Logout(ctx, raw))
		assert.Equal(t, 1, deps.revocations.Count())
	})

	t.Run("empty token is a no-op", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		assert.NoError(t, svc.Logout(ctx, ""))
		assert.Equal(t, 0, deps.revocations.Count())
	})

	t.Run("garbage token is a no-op", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		assert.NoError(t, svc.Logout(ctx, "not-a-token"))
		assert.Equal(t, 0, deps.revocations.Count())
	})

	t.Run("expired token is a no-op", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		deps.codec.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		raw, _, err := deps.codec.Issue("bob", time.Hour, domain.Claims{})
		require.NoError(t, err)
		deps.codec.Now = time.Now

		assert.NoError(t, svc.Logout(ctx, raw))
		assert.Equal(t, 0, deps.revocations.Count())
	})

	t.Run("store failure is returned", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		raw, _, err := deps.codec.Issue("bob", time.Hour, domain.Claims{})
		require.NoError(t, err)
		deps.revocations.Err = domain.ErrStoreClosed

		assert.ErrorIs(t, svc.Logout(ctx, raw), domain.ErrStoreClosed)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.ChangePasswordRequest
		wantErr error
	}{
		{"valid change", domain.ChangePasswordRequest{Username: "alice", OldPassword: "secret", NewPassword: "fresh"}, nil},
		{"unknown user", domain.ChangePasswordRequest{Username: "ghost", OldPassword: "secret", NewPassword: "fresh"}, domain.ErrNotFound},
		{"wrong old password", domain.ChangePasswordRequest{Username: "alice", OldPassword: "bad", NewPassword: "fresh"}, domain.ErrPasswordMismatch},
		{"new equals old", domain.ChangePasswordRequest{Username: "alice", OldPassword: "secret", NewPassword: "secret"}, domain.ErrPasswordUnchanged},
		{"empty new password", domain.ChangePasswordRequest{Username: "alice", OldPassword: "secret"}, domain.ErrInvalidInput},
		{"empty username", domain.ChangePasswordRequest{OldPassword: "secret", NewPassword: "fresh"}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, svc := newTestAuthService(t)
			deps.users.Add(&domain.User{Username: "alice", PasswordHash: "secret", Active: true})

			err := svc.ChangePassword(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAuthService_ChangePassword_ThenLogin(t *testing.T) {
	ctx := context.Background()
	deps, svc := newTestAuthService(t)
	deps.users.Add(&domain.User{Username: "alice", PasswordHash: "secret", Active: true})

	require.NoError(t, svc.ChangePassword(ctx, domain.ChangePasswordRequest{
		Username:    "alice",
		OldPassword: "secret",
		NewPassword: "fresh",
	}))

	_, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "fresh"})
	assert.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "secret"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_ChangePassword_UpdateFailure(t *testing.T) {
	boom := errors.New("disk full")
	directory := &mockUserDirectory{}
	directory.On("FindByUsername", mock.Anything, "alice").
		Return(&domain.User{Username: "alice", PasswordHash: "secret", Active: true}, nil)
	directory.On("UpdatePassword", mock.Anything, "alice", "fresh").Return(boom)

	svc, err := NewAuthService(AuthServiceConfig{
		Users:       directory,
		Hasher:      mocks.NewMockPasswordHasher(),
		Codec:       mocks.NewMockTokenCodec(),
		Guard:       mocks.NewMockLoginGuard(),
		Revocations: mocks.NewMockRevocationStore(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), domain.ChangePasswordRequest{
		Username:    "alice",
		OldPassword: "secret",
		NewPassword: "fresh",
	})
	assert.ErrorIs(t, err, boom)
	directory.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		raw, token, err := deps.codec.Issue("bob", time.Hour, domain.Claims{Role: domain.RoleUser})
		require.NoError(t, err)

		authCtx, err := svc.ValidateToken(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, "bob", authCtx.Username)
		assert.Equal(t, domain.RoleUser, authCtx.Role)
		assert.Equal(t, token.TokenID, authCtx.TokenID)
	})

	t.Run("empty token", func(t *testing.T) {
		_, svc := newTestAuthService(t)
		_, err := svc.ValidateToken(ctx, "")
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, svc := newTestAuthService(t)
		_, err := svc.ValidateToken(ctx, "garbage")
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("revoked token", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		raw, _, err := deps.codec.Issue("bob", time.Hour, domain.Claims{})
		require.NoError(t, err)
		require.NoError(t, svc.Logout(ctx, raw))

		_, err = svc.ValidateToken(ctx, raw)
		assert.ErrorIs(t, err, domain.ErrTokenRevoked)
	})

	t.Run("revocation store failure", func(t *testing.T) {
		deps, svc := newTestAuthService(t)
		raw, _, err := deps.codec.Issue("bob", time.Hour, domain.Claims{})
		require.NoError(t, err)
		deps.revocations.Err = domain.ErrStoreClosed

		_, err = svc.ValidateToken(ctx, raw)
		assert.ErrorIs(t, err, domain.ErrStoreClosed)
	})
}
