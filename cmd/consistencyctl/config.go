package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "consistency.yaml"

// Config is the merged CLI configuration.
type Config struct {
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	Table     string            `yaml:"table"`
	LogLevel  string            `yaml:"log_level"`
	LogFormat string            `yaml:"log_format"`
	Schemas   map[string]string `yaml:"schemas"`
	Cleanup   CleanupConfig     `yaml:"cleanup"`
}

// CleanupConfig configures the cleanup command.
type CleanupConfig struct {
	Retention   time.Duration `yaml:"retention"`
	CheckEvery  time.Duration `yaml:"check_every"`
	Limit       int           `yaml:"limit"`
	LockName    string        `yaml:"lock_name"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

func defaultConfig() Config {
	return Config{
		Driver:    "sqlite3",
		DSN:       "consistency.db",
		Table:     "outbox_messages",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

var envVars = map[string]func(*Config, string) error{
	"CONSISTENCY_DRIVER":     func(c *Config, v string) error { c.Driver = v; return nil },
	"CONSISTENCY_DSN":        func(c *Config, v string) error { c.DSN = v; return nil },
	"CONSISTENCY_TABLE":      func(c *Config, v string) error { c.Table = v; return nil },
	"CONSISTENCY_LOG_LEVEL":  func(c *Config, v string) error { c.LogLevel = v; return nil },
	"CONSISTENCY_LOG_FORMAT": func(c *Config, v string) error { c.LogFormat = v; return nil },
	"CONSISTENCY_CLEANUP_RETENTION": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.Cleanup.Retention = d
		return err
	},
}

// loadConfig merges defaults, the YAML file at path, .env, the environment and flags.
// A missing default config file or .env is not an error; a missing explicit path is.
func loadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	for name, apply := range envVars {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if err := apply(&cfg, value); err != nil {
			return Config{}, fmt.Errorf("env %s: %w", name, err)
		}
	}

	if flags != nil {
		applyFlags(&cfg, flags)
	}

	return cfg, cfg.validate()
}

func applyFlags(cfg *Config, flags *pflag.FlagSet) {
	str := func(name string, dst *string) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	str("driver", &cfg.Driver)
	str("dsn", &cfg.DSN)
	str("table", &cfg.Table)
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
}

func (c Config) validate() error {
	switch c.Driver {
	case "mysql", "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported driver %q (want mysql, postgres or sqlite3)", c.Driver)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	return nil
}

func (c Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}

	return level, nil
}
