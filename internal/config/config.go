// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinSecretLength is the shortest accepted HMAC signing secret in bytes
const MinSecretLength = 32

// Config holds every recognised option
type Config struct {
	// Token codec
	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	// Brute-force guard
	MaxAttempts        int
	BlockDuration      time.Duration
	GuardPruneInterval time.Duration

	// Revocation store
	SweepInterval time.Duration

	// HTTP
	Host               string
	Port               int
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	// User directory
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Password hashing
	BcryptCost int

	// Observability
	Environment string
	SentryDSN   string
	LogLevel    string
	LogFormat   string
}

// Load reads an optional .env file and then the environment.
// An explicit envFile must exist; the default .env is optional.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	p := &parser{}
	cfg := &Config{
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", "gymcrm-auth"),
		AccessTokenTTL: p.duration("ACCESS_TOKEN_TTL", time.Hour),

		MaxAttempts:        p.int("BRUTEFORCE_MAX_ATTEMPTS", 3),
		BlockDuration:      p.duration("BRUTEFORCE_BLOCK_DURATION", 5*time.Minute),
		GuardPruneInterval: p.duration("BRUTEFORCE_PRUNE_INTERVAL", 5*time.Minute),

		SweepInterval: p.duration("REVOCATION_SWEEP_INTERVAL", 60*time.Second),

		Host:               getEnv("HOST", "0.0.0.0"),
		Port:               p.int("PORT", 8080),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		ShutdownTimeout:    p.duration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		BcryptCost: p.int("BCRYPT_COST", 10),

		Environment: getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the options needed to serve requests
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER must not be empty"))
	}
	if c.AccessTokenTTL < time.Second {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be at least 1s"))
	}
	if c.MaxAttempts <= 0 {
		errs = append(errs, errors.New("BRUTEFORCE_MAX_ATTEMPTS must be positive"))
	}
	if c.BlockDuration <= 0 {
		errs = append(errs, errors.New("BRUTEFORCE_BLOCK_DURATION must be positive"))
	}
	if c.GuardPruneInterval <= 0 {
		errs = append(errs, errors.New("BRUTEFORCE_PRUNE_INTERVAL must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("REVOCATION_SWEEP_INTERVAL must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be json or text", c.LogFormat))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV names a production deployment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// parser collects conversion errors so all of them are reported at once
type parser struct {
	errs []error
}

func (p *parser) int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, value))
		return defaultValue
	}
	return n
}

// duration accepts Go duration syntax ("90s", "5m") or a bare number of seconds
func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, value))
		return defaultValue
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
