// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers file and environment values over those defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver picks the gig store: memory, postgres or sqlite3.
	StoreDriver string `koanf:"store_driver"`

	// DatabaseURL is the DSN for SQL store drivers.
	DatabaseURL string `koanf:"database_url"`

	// MigrationsPath holds *.up.sql files run at startup. Empty skips migrations.
	MigrationsPath string `koanf:"migrations_path"`

	// DBConnectRetries bounds connection attempts at startup.
	DBConnectRetries int `koanf:"db_connect_retries"`

	// DBRetryInterval is the pause between connection attempts, e.g. "2s".
	DBRetryInterval time.Duration `koanf:"db_retry_interval"`

	// DBMaxOpenConns caps the SQL connection pool.
	DBMaxOpenConns int `koanf:"db_max_open_conns"`

	// MaxBatchSize caps the number of gigs accepted by POST /conflicts/batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// SweepSchedule is a cron spec for background batch sweeps, e.g. "@every 15m".
	// Empty disables the sweeper.
	SweepSchedule string `koanf:"sweep_schedule"`

	// SweepHorizonHours is how far ahead of now a sweep looks.
	SweepHorizonHours int `koanf:"sweep_horizon_hours"`

	// JWTSecret enables HS256 bearer verification on conflict routes when set.
	JWTSecret string `koanf:"jwt_secret"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLatencyBucketsMS overrides the latency histogram buckets. Empty
	// keeps the built-in buckets.
	MetricsLatencyBucketsMS []float64 `koanf:"metrics_latency_buckets_ms"`

	// MetricsLabels are constant labels added to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		StoreDriver:       StoreMemory,
		MigrationsPath:    "",
		DBConnectRetries:  10,
		DBRetryInterval:   2 * time.Second,
		DBMaxOpenConns:    10,
		MaxBatchSize:      500,
		SweepSchedule:     "",
		SweepHorizonHours: 24 * 30,
		MetricsEnabled:    true,
		MetricsNamespace:  "gigmanager",
		MetricsSubsystem:  "conflicts",
	}
}

// SweepHorizon returns SweepHorizonHours as a duration.
func (c *Config) SweepHorizon() time.Duration {
	return time.Duration(c.SweepHorizonHours) * time.Hour
}

// Validate checks the values Load cannot fix up on its own.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres, StoreSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for store_driver %s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.DBRetryInterval < 0 || c.DBMaxOpenConns < 0 {
		return fmt.Errorf("%w: db_retry_interval and db_max_open_conns must not be negative", ErrInvalidConfig)
	}
	if c.MetricsNamespace == "" {
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsLatencyBucketsMS); i++ {
		if c.MetricsLatencyBucketsMS[i] <= c.MetricsLatencyBucketsMS[i-1] {
			return fmt.Errorf("%w: metrics_latency_buckets_ms must be increasing", ErrInvalidConfig)
		}
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("%w: max_batch_size must be positive", ErrInvalidConfig)
	}
	if c.SweepSchedule != "" && c.SweepHorizonHours <= 0 {
		return fmt.Errorf("%w: sweep_horizon_hours must be positive when sweeping", ErrInvalidConfig)
	}
	return nil
}
