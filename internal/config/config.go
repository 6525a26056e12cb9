// Package config loads claimhub settings from $CLAIMHUB_HOME/config.yaml,
// CLAIMHUB_* environment variables and built-in defaults, in that order of
// precedence (environment first).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the home directory.
const FileName = "config.yaml"

// Broadcast and database drivers.
const (
	DriverMemory = "memory"
	DriverNATS   = "nats"
	DriverSQLite = "sqlite"
)

// Config represents the claimhub configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Claim     ClaimConfig     `yaml:"claim"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Actor     string          `yaml:"actor,omitempty"` // recorded on admin log lines
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite", or "memory" for an ephemeral store
	Path   string `yaml:"path"`
}

type BroadcastConfig struct {
	Driver        string `yaml:"driver"` // "memory" or "nats"
	NATSURL       string `yaml:"nats_url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
	Buffer        int    `yaml:"buffer"`
}

type ClaimConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"` // empty disables the /metrics endpoint
}

type TracingConfig struct {
	File string `yaml:"file,omitempty"` // empty disables tracing
}

// HomeDir returns $CLAIMHUB_HOME, or ~/.claimhub when unset.
func HomeDir() (string, error) {
	if dir := os.Getenv("CLAIMHUB_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".claimhub"), nil
}

// Default returns the configuration used when nothing is set, rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Database:  DatabaseConfig{Driver: DriverSQLite, Path: filepath.Join(dir, "claimhub.db")},
		Broadcast: BroadcastConfig{Driver: DriverMemory, SubjectPrefix: "claimhub.events", Buffer: 64},
		Claim:     ClaimConfig{MaxAttempts: 5, RetryBackoff: 20 * time.Millisecond},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads config.yaml from dir. A missing file yields the defaults
// with environment overrides applied.
func LoadConfig(dir string) (*Config, error) {
	def := Default(dir)

	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("CLAIMHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("broadcast.driver", def.Broadcast.Driver)
	v.SetDefault("broadcast.nats_url", def.Broadcast.NATSURL)
	v.SetDefault("broadcast.subject_prefix", def.Broadcast.SubjectPrefix)
	v.SetDefault("broadcast.buffer", def.Broadcast.Buffer)
	v.SetDefault("claim.max_attempts", def.Claim.MaxAttempts)
	v.SetDefault("claim.retry_backoff", def.Claim.RetryBackoff)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("tracing.file", "")
	v.SetDefault("actor", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   v.GetString("database.path"),
		},
		Broadcast: BroadcastConfig{
			Driver:        strings.ToLower(v.GetString("broadcast.driver")),
			NATSURL:       v.GetString("broadcast.nats_url"),
			SubjectPrefix: v.GetString("broadcast.subject_prefix"),
			Buffer:        v.GetInt("broadcast.buffer"),
		},
		Claim: ClaimConfig{
			MaxAttempts:  v.GetInt("claim.max_attempts"),
			RetryBackoff: v.GetDuration("claim.retry_backoff"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Metrics: MetricsConfig{Addr: v.GetString("metrics.addr")},
		Tracing: TracingConfig{File: v.GetString("tracing.file")},
		Actor:   v.GetString("actor"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q (want sqlite or memory)", c.Database.Driver)
	}
	switch c.Broadcast.Driver {
	case DriverMemory:
	case DriverNATS:
		if c.Broadcast.NATSURL == "" {
			return fmt.Errorf("broadcast.nats_url is required when broadcast.driver is nats")
		}
	default:
		return fmt.Errorf("unknown broadcast.driver %q (want memory or nats)", c.Broadcast.Driver)
	}
	if c.Claim.MaxAttempts < 1 {
		return fmt.Errorf("claim.max_attempts must be at least 1 (got %d)", c.Claim.MaxAttempts)
	}
	if c.Claim.RetryBackoff < 0 {
		return fmt.Errorf("claim.retry_backoff must not be negative")
	}
	return nil
}

// SaveConfig writes config.yaml to dir, creating it if needed.
func SaveConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
