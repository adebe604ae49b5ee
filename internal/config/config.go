// Package config loads the moodcycle configuration from YAML, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"moodcycle/internal/dashboard"
	"moodcycle/internal/util"
)

// Storage backends.
const (
	BackendParquet  = "parquet"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for moodcycle.
type Config struct {
	Storage    Storage              `yaml:"storage"`
	Logging    Logging              `yaml:"logging"`
	Update     Update               `yaml:"update"`
	Thresholds dashboard.Thresholds `yaml:"thresholds"`
}

// Storage holds paths and the backend for data persistence.
type Storage struct {
	DataDir     string `yaml:"data_dir"`
	SQLitePath  string `yaml:"sqlite_path"`
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Update controls the batch driver.
type Update struct {
	StartDate   string `yaml:"start_date"`
	Workers     int    `yaml:"workers"`
	MetricsFile string `yaml:"metrics_file"`
}

// Secrets are read from the environment only.
type Secrets struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, fills defaults, and then applies environment variable
// overrides. A .env file in the working directory is loaded first when
// present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// .env is optional.
	_ = godotenv.Load()

	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := applySecrets(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendParquet
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = cfg.Storage.DataDir + "/moodcycle.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Update.StartDate == "" {
		cfg.Update.StartDate = "2026-01-01"
	}
	if cfg.Update.Workers <= 0 {
		cfg.Update.Workers = 4
	}
	cfg.Thresholds = dashboard.DefaultThresholds().Merge(cfg.Thresholds)
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applySecrets(cfg *Config) error {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return fmt.Errorf("reading secrets: %w", err)
	}
	if s.DatabaseURL != "" {
		cfg.Storage.PostgresDSN = s.DatabaseURL
	}
	return nil
}

// Validate reports configuration that cannot be run.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Storage.Backend) {
	case BackendParquet, BackendSQLite:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn (or DATABASE_URL) is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	if _, err := util.ParseDate(c.Update.StartDate); err != nil {
		errs = append(errs, fmt.Errorf("update.start_date: %w", err))
	}
	return errors.Join(errs...)
}
