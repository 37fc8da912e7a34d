package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gymcrm-auth/internal/adapters/driven/auth"
	"github.com/custodia-labs/gymcrm-auth/internal/adapters/driven/memory"
	"github.com/custodia-labs/gymcrm-auth/internal/adapters/driven/postgres"
	"github.com/custodia-labs/gymcrm-auth/internal/adapters/driving/http"
	"github.com/custodia-labs/gymcrm-auth/internal/config"
	"github.com/custodia-labs/gymcrm-auth/internal/core/services"
	"github.com/custodia-labs/gymcrm-auth/internal/observability"
	"github.com/custodia-labs/gymcrm-auth/internal/worker"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM. The revocation sweep and
guard pruning run in the background and stop with the server.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("gymcrm-auth starting", "version", version, "env", cfg.Environment)

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Environment, version); err != nil {
		logger.Warn("sentry disabled", "error", err)
	}
	defer observability.FlushSentry()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// User directory
	dbCfg := postgres.DefaultConfig(cfg.DatabaseURL)
	dbCfg.MaxOpenConns = cfg.DBMaxOpenConns
	dbCfg.MaxIdleConns = cfg.DBMaxIdleConns
	dbCfg.ConnMaxLifetime = cfg.DBConnMaxLifetime

	db, err := postgres.Connect(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	users := postgres.NewUserStore(db)
	hasher := auth.NewBcryptHasherWithCost(cfg.BcryptCost)

	codec, err := auth.NewJWTCodec(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	guard, err := memory.NewLoginGuard(memory.LoginGuardConfig{
		MaxAttempts:   cfg.MaxAttempts,
		BlockDuration: cfg.BlockDuration,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	revocations, err := memory.NewRevocationStore(memory.RevocationStoreConfig{
		SweepInterval: cfg.SweepInterval,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer revocations.Close()

	maintenance, err := worker.NewWorker(worker.WorkerConfig{
		Jobs: []worker.Job{{
			Name:     "login-guard-prune",
			Interval: cfg.GuardPruneInterval,
			Run:      guard.Prune,
		}},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	if err := maintenance.Start(ctx); err != nil {
		return err
	}
	defer maintenance.Stop()

	authService, err := services.NewAuthService(services.AuthServiceConfig{
		Users:       users,
		Hasher:      hasher,
		Codec:       codec,
		Guard:       guard,
		Revocations: revocations,
		TokenTTL:    cfg.AccessTokenTTL,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	server := http.NewServer(http.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Version:         version,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
	}, authService, codec, revocations, db)

	if err := server.Start(ctx); err != nil {
		return err
	}

	logger.Info("gymcrm-auth stopped")
	return nil
}
