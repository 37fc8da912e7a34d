package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gymcrm-auth/internal/adapters/driven/postgres"
	"github.com/custodia-labs/gymcrm-auth/internal/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the user directory schema",
		Long:  `Apply the embedded users schema to the PostgreSQL database. Safe to run repeatedly.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	defer db.Close()

	cmd.Println("Applying schema...")
	if err := db.InitSchema(ctx); err != nil {
		return err
	}

	cmd.Println("Schema is up to date")
	return nil
}
