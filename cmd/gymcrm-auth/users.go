package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/custodia-labs/gymcrm-auth/internal/adapters/driven/auth"
	"github.com/custodia-labs/gymcrm-auth/internal/adapters/driven/postgres"
	"github.com/custodia-labs/gymcrm-auth/internal/config"
	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
)

// userWriter is the part of the user directory the admin commands need
type userWriter interface {
	Save(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, username string) error
}

var _ userWriter = (*postgres.UserStore)(nil)

// NewCreateUserCmd creates the create-user subcommand.
func NewCreateUserCmd() *cobra.Command {
	var (
		cost     int
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "create-user <username> [password]",
		Short: "Create or replace a user in the directory",
		Long: `Hash the password and upsert the user into the PostgreSQL user directory.
When no password argument is given it is read from the first line of standard input.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}

			return withUserDirectory(cmd, func(ctx context.Context, users userWriter) error {
				if err := createUser(ctx, users, auth.NewBcryptHasherWithCost(cost), args[0], password, !inactive); err != nil {
					return err
				}
				cmd.Printf("User %s saved\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the account disabled")
	return cmd
}

// NewDeleteUserCmd creates the delete-user subcommand.
func NewDeleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <username>",
		Short: "Remove a user from the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserDirectory(cmd, func(ctx context.Context, users userWriter) error {
				if err := deleteUser(ctx, users, args[0]); err != nil {
					return err
				}
				cmd.Printf("User %s deleted\n", args[0])
				return nil
			})
		},
	}
}

func createUser(ctx context.Context, users userWriter, hasher *auth.BcryptHasher, username, password string, active bool) error {
	if username == "" {
		return errors.New("username must not be empty")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return users.Save(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		Active:       active,
	})
}

func deleteUser(ctx context.Context, users userWriter, username string) error {
	err := users.Delete(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("user %q does not exist", username)
	}
	return err
}

// withUserDirectory connects to the configured database for the duration of fn
func withUserDirectory(cmd *cobra.Command, fn func(ctx context.Context, users userWriter) error) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, postgres.NewUserStore(db))
}
