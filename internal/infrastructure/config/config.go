package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the storage bridge.
//
// It covers only what the process itself needs to start: the two Postgres
// endpoints (config store and TimescaleDB), the reconciliation intervals,
// the optional stats mirror, and logging. The MQTT broker parameters are
// deliberately absent — they live in the config store and are polled at
// runtime (see internal/bridge).
type Config struct {
	ConfigDB  StoreConfig     `yaml:"config_db"`
	Timescale StoreConfig     `yaml:"timescale"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig contains connection settings for one Postgres endpoint.
type StoreConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ReconcileConfig contains the control-loop intervals (seconds).
type ReconcileConfig struct {
	// ConfigInterval is how often the broker configuration is re-read
	// from the config store.
	ConfigInterval int `yaml:"config_interval"`

	// RetryInterval is the idle tick on which a connect attempt is
	// retried while the session is not established.
	RetryInterval int `yaml:"retry_interval"`
}

// MetricsConfig contains settings for the optional InfluxDB stats mirror.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Token    string `yaml:"token"`
	Org      string `yaml:"org"`
	Bucket   string `yaml:"bucket"`
	Interval int    `yaml:"interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// A missing config file is not an error: the bridge is routinely deployed
// with environment variables only (TIMESCALE_*, CONFIG_DB_*), so absence
// of the file falls through to defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Environment-only deployment.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// The store defaults match the compose-network hostnames the bridge has
// always shipped with.
func defaultConfig() *Config {
	return &Config{
		ConfigDB: StoreConfig{
			Host:     "postgres",
			Port:     5432,
			Database: "storage_config",
			User:     "storage",
			Password: "storage123",
		},
		Timescale: StoreConfig{
			Host:     "timescaledb",
			Port:     5432,
			Database: "sensor_data",
			User:     "timescale",
			Password: "timescale123",
		},
		Reconcile: ReconcileConfig{
			ConfigInterval: 30,
			RetryInterval:  5,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Interval: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. The variable names are part of the deployment contract
// and predate the YAML file, so they do not share a common prefix.
func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ConfigDB.Host, "CONFIG_DB_HOST")
	overrideInt(&cfg.ConfigDB.Port, "CONFIG_DB_PORT")
	overrideString(&cfg.ConfigDB.Database, "CONFIG_DB_NAME")
	overrideString(&cfg.ConfigDB.User, "CONFIG_DB_USER")
	overrideString(&cfg.ConfigDB.Password, "CONFIG_DB_PASSWORD")

	overrideString(&cfg.Timescale.Host, "TIMESCALE_HOST")
	overrideInt(&cfg.Timescale.Port, "TIMESCALE_PORT")
	overrideString(&cfg.Timescale.Database, "TIMESCALE_DB")
	overrideString(&cfg.Timescale.User, "TIMESCALE_USER")
	overrideString(&cfg.Timescale.Password, "TIMESCALE_PASSWORD")

	overrideString(&cfg.Metrics.URL, "BRIDGE_METRICS_URL")
	overrideString(&cfg.Metrics.Token, "BRIDGE_METRICS_TOKEN")

	overrideString(&cfg.Logging.Level, "BRIDGE_LOG_LEVEL")
	overrideString(&cfg.Logging.Format, "BRIDGE_LOG_FORMAT")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.ConfigDB.Host == "" {
		errs = append(errs, "config_db.host is required")
	}
	if c.ConfigDB.Port < 1 || c.ConfigDB.Port > 65535 {
		errs = append(errs, "config_db.port must be between 1 and 65535")
	}
	if c.Timescale.Host == "" {
		errs = append(errs, "timescale.host is required")
	}
	if c.Timescale.Port < 1 || c.Timescale.Port > 65535 {
		errs = append(errs, "timescale.port must be between 1 and 65535")
	}
	if c.Reconcile.ConfigInterval < 1 {
		errs = append(errs, "reconcile.config_interval must be at least 1 second")
	}
	if c.Reconcile.RetryInterval < 1 {
		errs = append(errs, "reconcile.retry_interval must be at least 1 second")
	}
	if c.Metrics.Enabled && c.Metrics.URL == "" {
		errs = append(errs, "metrics.url is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ConfigCheckInterval returns the config re-read interval as a Duration.
func (c *Config) ConfigCheckInterval() time.Duration {
	return time.Duration(c.Reconcile.ConfigInterval) * time.Second
}

// RetryTickInterval returns the idle connect-retry interval as a Duration.
func (c *Config) RetryTickInterval() time.Duration {
	return time.Duration(c.Reconcile.RetryInterval) * time.Second
}

// MetricsInterval returns the stats mirror flush interval as a Duration.
func (c *Config) MetricsInterval() time.Duration {
	return time.Duration(c.Metrics.Interval) * time.Second
}
