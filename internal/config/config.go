package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "rodeo.json"

	// DefaultBaseURL is the platform origin used when nothing else is
	// configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultEnvironment is the build mode when unset.
	DefaultEnvironment = "production"

	// DefaultTimeoutSeconds is the per-request timeout when unset.
	DefaultTimeoutSeconds = 30
)

// Environment variable overrides. They take precedence over rodeo.json.
const (
	EnvBaseURL     = "RODEO_BASE_URL"
	EnvEnvironment = "RODEO_ENV"
)

// Config is the rodeo.json client configuration.
type Config struct {
	// BaseURL is the platform origin, e.g. "https://rodeo.example.com".
	BaseURL string `json:"base_url,omitempty"`

	// Environment is "development" or "production". Development enables
	// the offline demo login fallback.
	Environment string `json:"environment,omitempty"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// StatePath is where session state (token, lookup history) is kept.
	// Default: <config dir>/state.json.
	StatePath string `json:"state_path,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Environment:    DefaultEnvironment,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// Load reads configuration from the specified directory, looking for
// rodeo.json there. A missing file yields defaults, not an error; the
// client works against a local platform with zero configuration.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path and applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	cfg.configPath = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus env overrides.
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config: no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.StatePath == "" && c.configPath != "" {
		c.StatePath = filepath.Join(filepath.Dir(c.configPath), "state.json")
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvEnvironment); v != "" {
		c.Environment = v
	}
}

func (c *Config) validate() error {
	switch c.Environment {
	case "development", "production":
		return nil
	}
	return fmt.Errorf("config: environment must be \"development\" or \"production\", got %q", c.Environment)
}
