package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the therapy service
// Environment variables are automatically parsed from PSICOLOGO_ prefix
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage: "postgres" for deployments, "sqlite" for local dev.
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	// Analysis backend the gateway relays to.
	AnalysisBackendURL string `envconfig:"ANALYSIS_BACKEND_URL" default:"http://localhost:8000"`

	// Auth provider. "mock" accepts the development keys; "gotrue" validates
	// bearer tokens against the hosted auth endpoint.
	AuthMode   string `envconfig:"AUTH_MODE" default:"mock"`
	GoTrueURL  string `envconfig:"GOTRUE_URL" default:""`
	GoTrueAnon string `envconfig:"GOTRUE_ANON_KEY" default:""`

	// Dashboard activity window in days.
	ActiveWindowDays int `envconfig:"ACTIVE_WINDOW_DAYS" default:"30"`

	// Health probing
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"30"`
}

// ResolveDefaults validates the configuration and derives DBDriver when set
// to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}

	switch c.AuthMode {
	case "mock":
	case "gotrue":
		if c.GoTrueURL == "" {
			return fmt.Errorf("AUTH_MODE=gotrue requires GOTRUE_URL")
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE: %s", c.AuthMode)
	}

	if c.ActiveWindowDays <= 0 {
		return fmt.Errorf("ACTIVE_WINDOW_DAYS must be positive")
	}
	if c.HealthIntervalSeconds <= 0 {
		c.HealthIntervalSeconds = 30
	}
	if c.HealthProbeTimeoutSeconds <= 0 {
		c.HealthProbeTimeoutSeconds = 5
	}
	if c.BootstrapTimeoutSeconds <= 0 {
		c.BootstrapTimeoutSeconds = 30
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Environment variables should be prefixed with PSICOLOGO_
// Example: PSICOLOGO_HTTP_PORT, PSICOLOGO_POSTGRES_DSN
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PSICOLOGO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Str("analysis_backend", cfg.AnalysisBackendURL).
		Str("auth_mode", cfg.AuthMode).
		Int("active_window_days", cfg.ActiveWindowDays).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment: EnvTesting,
	}

	cfg.HTTPPort = 8080
	cfg.DBDriver = "sqlite"
	cfg.SQLitePath = ":memory:"
	cfg.AnalysisBackendURL = "http://localhost:8000"
	cfg.AuthMode = "mock"
	cfg.ActiveWindowDays = 30
	cfg.HealthIntervalSeconds = 30
	cfg.HealthProbeTimeoutSeconds = 5
	cfg.BootstrapTimeoutSeconds = 30

	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
