package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default values for optional settings.
const (
	DefaultListenAddr    = ":8080"
	DefaultMetricsAddr   = ":9090"
	DefaultSweepInterval = 10 * time.Minute
	DefaultSafetyMargin  = 5 * time.Minute
)

// Config carries everything the gateway needs at startup. Secrets arrive
// through the environment (optionally hydrated from AWS Secrets Manager and
// .env files by LoadEnv).
type Config struct {
	// EncryptionKey is the base64-encoded 32-byte AES key used to encrypt
	// stored tokens. Required.
	EncryptionKey string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// GoogleClientID and GoogleClientSecret identify the OAuth app used for
	// the Google-family providers. Required.
	GoogleClientID     string
	GoogleClientSecret string

	// GoogleRedirectURL is the registered OAuth callback URL.
	GoogleRedirectURL string

	// JWTSecret signs and verifies the gateway's bearer tokens. Required
	// when the HTTP surface is enabled.
	JWTSecret string

	// ListenAddr is the main HTTP listen address.
	ListenAddr string

	// MetricsAddr is the dedicated metrics/health listen address.
	MetricsAddr string

	// SweepInterval is how often the background refresh sweep runs.
	// Zero disables the sweeper.
	SweepInterval time.Duration

	// SafetyMargin is the freshness lead time applied before expiry.
	SafetyMargin time.Duration

	// ProvidersFile is an optional path to a providers.yaml overriding
	// provider endpoints and scopes.
	ProvidersFile string
}

// Load reads the configuration from the environment. Call LoadEnv first to
// hydrate the environment from Secrets Manager and .env files.
func Load() (*Config, error) {
	cfg := &Config{
		EncryptionKey:      os.Getenv("ENCRYPTION_KEY"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		ListenAddr:         envOrDefault("LISTEN_ADDR", DefaultListenAddr),
		MetricsAddr:        envOrDefault("METRICS_ADDR", DefaultMetricsAddr),
		SweepInterval:      envDurationOrDefault("TOKEN_SWEEP_INTERVAL", DefaultSweepInterval),
		SafetyMargin:       envDurationOrDefault("TOKEN_SAFETY_MARGIN", DefaultSafetyMargin),
		ProvidersFile:      os.Getenv("PROVIDERS_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	var errs []error

	if c.EncryptionKey == "" {
		errs = append(errs, errors.New("ENCRYPTION_KEY is required"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.GoogleClientID == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID is required"))
	}
	if c.GoogleClientSecret == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_SECRET is required"))
	}
	if c.SafetyMargin < 0 {
		errs = append(errs, fmt.Errorf("TOKEN_SAFETY_MARGIN must not be negative, got %s", c.SafetyMargin))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("TOKEN_SWEEP_INTERVAL must not be negative, got %s", c.SweepInterval))
	}

	return errors.Join(errs...)
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are read as seconds.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
