package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the search server configuration.
type ServerConfig struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port           int   `yaml:"port"`
	ShutdownSec    int   `yaml:"shutdown_timeout_sec"`
	MaxRequestSize int64 `yaml:"max_request_bytes"`
}

// StorageConfig holds on-disk persistence settings.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env   string `yaml:"env"`   // prod, dev, local
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// SearchConfig holds query execution settings.
type SearchConfig struct {
	InnerHitsWorkers int `yaml:"inner_hits_workers"` // parallel (hit x definition) pairs per request
	TimeoutMs        int `yaml:"timeout_ms"`         // 0 disables the per-request timeout
}

// CacheConfig holds the resolution cache settings.
type CacheConfig struct {
	ResolutionMaxCost int64 `yaml:"resolution_max_cost"` // 0 disables the cache
}

// LoadServerConfig reads configuration from a YAML file.
// ${VAR} and ${VAR:-default} references are expanded from the environment.
func LoadServerConfig(path string) (ServerConfig, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	data = expandEnvVars(data)

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// DefaultServerConfig returns the configuration used when no file is given.
func DefaultServerConfig() ServerConfig {
	var cfg ServerConfig
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with default values.
func (c *ServerConfig) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxRequestSize <= 0 {
		c.HTTP.MaxRequestSize = 32 << 20
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "./search_data"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
	if c.Search.InnerHitsWorkers <= 0 {
		c.Search.InnerHitsWorkers = 8
	}
	if c.Cache.ResolutionMaxCost < 0 {
		c.Cache.ResolutionMaxCost = 0
	}
}

// Validate checks the configuration for correctness.
func (c *ServerConfig) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Logging.Env {
	case "prod", "dev", "local":
	default:
		return fmt.Errorf("logging.env must be one of prod, dev, local, got %q", c.Logging.Env)
	}
	if c.Search.TimeoutMs < 0 {
		return fmt.Errorf("search.timeout_ms cannot be negative, got %d", c.Search.TimeoutMs)
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
