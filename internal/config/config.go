package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Feed        FeedConfig        `yaml:"feed"`
	Scanner     ScannerConfig     `yaml:"scanner"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// FeedConfig holds the streaming edge-weight feed connection settings.
type FeedConfig struct {
	WSURL             string        `yaml:"ws_url"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	PingInterval      time.Duration `yaml:"ping_interval"`
}

// ScannerConfig holds cycle-ratio scan settings.
type ScannerConfig struct {
	ScanInterval  time.Duration `yaml:"scan_interval"`
	MaxIterations int           `yaml:"max_iterations"`
	InitialRatio  int64         `yaml:"initial_ratio"`
	NumWorkers    int           `yaml:"num_workers"`
}

// PersistenceConfig holds database settings.
type PersistenceConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// Set defaults
	cfg.setDefaults()

	// Read YAML file if it exists
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if len(data) > 0 {
		// Expand environment variables in YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for all configuration options.
func (c *Config) setDefaults() {
	c.Feed = FeedConfig{
		ReconnectInterval: 5 * time.Second,
		PingInterval:      30 * time.Second,
	}
	c.Scanner = ScannerConfig{
		ScanInterval:  10 * time.Second,
		MaxIterations: 10000,
		InitialRatio:  1_000_000,
		NumWorkers:    4,
	}
	c.Persistence = PersistenceConfig{
		SQLitePath: "./data/cycleratio.db",
	}
	c.Metrics = MetricsConfig{
		Enabled: true,
		Port:    8080,
		Path:    "/metrics",
	}
	c.Logging = LoggingConfig{
		Level:  "info",
		Format: "json",
	}
}

// applyEnvOverrides applies environment variable overrides to configuration.
func (c *Config) applyEnvOverrides() {
	// Feed config
	if v := os.Getenv("FEED_WS_URL"); v != "" {
		c.Feed.WSURL = v
	}

	// Scanner config
	if v := os.Getenv("SCANNER_MAX_ITERATIONS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.Scanner.MaxIterations = n
		}
	}
	if v := os.Getenv("SCANNER_NUM_WORKERS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.Scanner.NumWorkers = n
		}
	}

	// Metrics config
	if v := os.Getenv("METRICS_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
			c.Metrics.Port = port
		}
	}

	// Persistence config
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Persistence.SQLitePath = v
	}

	// Logging config
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// validate checks that all required configuration values are present and valid.
func (c *Config) validate() error {
	if c.Feed.WSURL == "" {
		return fmt.Errorf("feed.ws_url is required (set FEED_WS_URL env var)")
	}
	if c.Scanner.ScanInterval <= 0 {
		return fmt.Errorf("scanner.scan_interval must be positive")
	}
	if c.Scanner.MaxIterations <= 0 {
		return fmt.Errorf("scanner.max_iterations must be positive")
	}
	if c.Scanner.NumWorkers <= 0 {
		return fmt.Errorf("scanner.num_workers must be positive")
	}
	if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be a valid port number")
	}
	return nil
}
