// Package config loads rowgraph settings from a YAML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, ROWGRAPH_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rowgraph/internal/querysql"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ROWGRAPH_"

// Config holds all rowgraph configuration.
type Config struct {
	// Path to the CUE table definitions, a file or a package directory.
	Schema string `yaml:"schema" env:"SCHEMA"`

	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

// DatabaseConfig selects the backend.
type DatabaseConfig struct {
	// sqlite or postgres.
	Dialect string `yaml:"dialect" env:"DIALECT"`

	// File path for sqlite, connection string for postgres.
	DSN string `yaml:"dsn" env:"DSN"`
}

// LogConfig controls the logger built by Logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Schema: "schema.cue",
		Database: DatabaseConfig{
			Dialect: "sqlite",
			DSN:     "rowgraph.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// the environment. An empty path skips the file; a missing file is an
// error only when path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every enumerated setting has a known value.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Database.ParseDialect(); err != nil {
		errs = append(errs, fmt.Errorf("database.dialect: %w", err))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn: must not be empty"))
	}
	if _, err := c.Log.ParseLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q: must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ParseDialect returns the configured SQL dialect.
func (d DatabaseConfig) ParseDialect() (querysql.Dialect, error) {
	return querysql.ParseDialect(d.Dialect)
}

// ParseLevel returns the configured slog level.
func (l LogConfig) ParseLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("unknown level %q", l.Level)
	}
	return level, nil
}

// Logger builds a logger writing to w in the configured format and level.
// Unknown settings fall back to text at info.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	level, err := l.ParseLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(l.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
