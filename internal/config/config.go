package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/lifecycle/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "lifecycle.yaml"

	// DefaultAddr is the default server listen address.
	DefaultAddr = ":8080"

	// DefaultTitle is the default page title.
	DefaultTitle = "Counter lifecycle"

	// DefaultShutdownTimeout bounds graceful server shutdown.
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultIncrements is the number of increments "lifecycle run" performs.
	DefaultIncrements = 3
)

// Environment variables that override the file.
const (
	EnvAddr     = "LIFECYCLE_ADDR"
	EnvLogLevel = "LIFECYCLE_LOG_LEVEL"
)

// Config represents lifecycle.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Demo   DemoConfig   `yaml:"demo"`

	path string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr,omitempty"`

	// Title is the page title.
	Title string `yaml:"title,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// DemoConfig contains settings for the scripted demo run.
type DemoConfig struct {
	Increments int `yaml:"increments"`
}

// New creates a Config with default values.
func New() *Config {
	cfg := &Config{Demo: DemoConfig{Increments: DefaultIncrements}}
	cfg.applyDefaults()
	return cfg
}

// LoadOptional reads lifecycle.yaml from dir if present, applies defaults
// and environment overrides, and validates the result.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			cfg := New()
			cfg.applyEnv()
			return cfg, cfg.Validate()
		}
		return nil, errors.New("E010").Wrap(err)
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path. The file must exist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E010").Wrap(err)
	}

	// Keys absent from the file keep their defaults; an explicit zero is kept.
	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E010").
			WithDetail(fmt.Sprintf("Failed to parse %s: %v", path, err)).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML")
	}

	cfg.path = path
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Title == "" {
		c.Server.Title = DefaultTitle
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("E010").WithDetail(err.Error()).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E010").
			WithDetail(fmt.Sprintf("unknown log format %q", c.Log.Format)).
			WithSuggestion("Use text or json")
	}
	if c.Demo.Increments < 0 {
		return errors.New("E010").
			WithDetail(fmt.Sprintf("demo.increments must not be negative, got %d", c.Demo.Increments))
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("E010").
			WithDetail("server.shutdown_timeout must not be negative")
	}
	return nil
}

// Logger builds the configured slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
