// ABOUTME: Configuration loading and parsing for synapse-gateway
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrConfigInvalid is wrapped by every validation failure.
var ErrConfigInvalid = errors.New("invalid configuration")

// Defaults applied before the file is read.
const (
	DefaultInterface    = "0.0.0.0"
	DefaultPort         = 19132
	DefaultPollInterval = 10 * time.Millisecond
	DefaultWriteTimeout = 5 * time.Second
	DefaultMaxFrameSize = 8 << 20
	DefaultHealthAddr   = "127.0.0.1:19133"
	DefaultMetricsAddr  = "127.0.0.1:9132"
	DefaultMetricsPath  = "/metrics"
)

// Config represents the complete synapse-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Hub      HubConfig      `yaml:"hub" toml:"hub"`
	Health   HealthConfig   `yaml:"health" toml:"health"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`

	// Admins receive command broadcasts such as the stop notice.
	Admins []string `yaml:"admins" toml:"admins"`
}

// ServerConfig holds the client-facing socket configuration
type ServerConfig struct {
	Interface    string `yaml:"interface" toml:"interface"`
	Port         int    `yaml:"port" toml:"port"`
	MaxFrameSize int    `yaml:"max_frame_size" toml:"max_frame_size"`

	WriteTimeout    time.Duration `yaml:"-" toml:"-"`
	WriteTimeoutRaw string        `yaml:"write_timeout" toml:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// HubConfig holds main-logic polling configuration
type HubConfig struct {
	PollInterval time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	PollIntervalRaw string `yaml:"poll_interval" toml:"poll_interval"`
}

// HealthConfig holds the gRPC health endpoint configuration
type HealthConfig struct {
	GRPCAddr string `yaml:"grpc_addr" toml:"grpc_addr"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Addr    string `yaml:"addr" toml:"addr"`
	Path    string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Interface:    DefaultInterface,
			Port:         DefaultPort,
			MaxFrameSize: DefaultMaxFrameSize,
			WriteTimeout: DefaultWriteTimeout,
		},
		Hub:     HubConfig{PollInterval: DefaultPollInterval},
		Health:  HealthConfig{GRPCAddr: DefaultHealthAddr},
		Metrics: MetricsConfig{Addr: DefaultMetricsAddr, Path: DefaultMetricsPath},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".toml"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration content over the defaults.
func Parse(data []byte, isTOML bool) (*Config, error) {
	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if isTOML {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.Interface == "" {
		return fmt.Errorf("%w: server.interface is required", ErrConfigInvalid)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d is outside 1-65535", ErrConfigInvalid, c.Server.Port)
	}
	if c.Server.MaxFrameSize <= 0 {
		return fmt.Errorf("%w: server.max_frame_size must be positive", ErrConfigInvalid)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrConfigInvalid)
	}

	if c.Hub.PollInterval <= 0 {
		return fmt.Errorf("%w: hub.poll_interval must be positive", ErrConfigInvalid)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Addr == "" {
			return fmt.Errorf("%w: metrics.addr is required when metrics are enabled", ErrConfigInvalid)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("%w: metrics.path must start with /", ErrConfigInvalid)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q is not one of debug, info, warn, error", ErrConfigInvalid, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q is not text or json", ErrConfigInvalid, c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Hub.PollIntervalRaw != "" {
		cfg.Hub.PollInterval, err = time.ParseDuration(cfg.Hub.PollIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_interval %q: %w", cfg.Hub.PollIntervalRaw, err)
		}
	}

	if cfg.Server.WriteTimeoutRaw != "" {
		cfg.Server.WriteTimeout, err = time.ParseDuration(cfg.Server.WriteTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing write_timeout %q: %w", cfg.Server.WriteTimeoutRaw, err)
		}
	}

	return nil
}
