package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var envFile string

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gymcrm-auth",
		Short:   "GymCRM authentication service",
		Long:    `Issues and revokes access tokens for GymCRM users, with brute-force login protection.`,
		Version: version,
		RunE:    runServe,

		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewCreateUserCmd())
	cmd.AddCommand(NewDeleteUserCmd())

	return cmd
}
