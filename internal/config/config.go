package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StrategyType selects how wildcard imports with surviving names are
// rewritten
type StrategyType string

const (
	StrategyNarrow  StrategyType = "narrow"
	StrategyQualify StrategyType = "qualify"
)

// Config holds all configuration for unstar
type Config struct {
	// Python is the interpreter executable used to resolve wildcard exports
	Python string `yaml:"python" env:"UNSTAR_PYTHON"`

	// SearchPath is the root the interpreter imports analyzed modules from;
	// empty means the scanned tree root
	SearchPath string `yaml:"search_path" env:"UNSTAR_SEARCH_PATH"`

	// Strategy selects the rewrite for wildcard imports with used names
	Strategy StrategyType `yaml:"strategy" env:"UNSTAR_STRATEGY"`

	// Aliases maps module paths (or their last segment) to the alias the
	// qualify strategy binds them under
	Aliases map[string]string `yaml:"aliases"`

	// Excludes are extra gitignore-style patterns skipped while scanning
	Excludes []string `yaml:"excludes" env:"UNSTAR_EXCLUDES"`

	// CachePath persists wildcard export lists across runs; empty disables
	CachePath string `yaml:"cache_path" env:"UNSTAR_CACHE_PATH"`

	// CacheSize caps how many module export lists the cache retains
	CacheSize int `yaml:"cache_size" env:"UNSTAR_CACHE_SIZE"`

	// Workers caps scan parallelism; 0 means one per CPU
	Workers int `yaml:"workers" env:"UNSTAR_WORKERS"`

	// Logging
	LogFile string `yaml:"log_file" env:"UNSTAR_LOG_FILE"`
	Verbose bool   `yaml:"verbose" env:"UNSTAR_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Python:     "python3",
		SearchPath: "",
		Strategy:   StrategyNarrow,
		Aliases:    map[string]string{},
		Excludes:   nil,
		CachePath:  "",
		CacheSize:  1000,
		Workers:    0,
		LogFile:    "",
		Verbose:    false,
	}
}

// globalConfigFilePath returns the global config file path (~/.unstar/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".unstar/config.yaml"
	}
	return filepath.Join(home, ".unstar", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.unstar/config.yaml)
func projectConfigFilePath() string {
	return ".unstar/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.unstar/config.yaml)
// 3. Global config (~/.unstar/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// SaveProject writes the configuration to the project-level path.
func (c *Config) SaveProject() error {
	return c.Save(projectConfigFilePath())
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UNSTAR_PYTHON"); v != "" {
		cfg.Python = v
	}
	if v := os.Getenv("UNSTAR_SEARCH_PATH"); v != "" {
		cfg.SearchPath = v
	}
	if v := os.Getenv("UNSTAR_STRATEGY"); v != "" {
		cfg.Strategy = StrategyType(v)
	}
	if v := os.Getenv("UNSTAR_EXCLUDES"); v != "" {
		cfg.Excludes = strings.Split(v, ",")
	}
	if v := os.Getenv("UNSTAR_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("UNSTAR_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheSize = n
		}
	}
	if v := os.Getenv("UNSTAR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("UNSTAR_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("UNSTAR_VERBOSE"); v != "" {
		cfg.Verbose = v == "1" || strings.EqualFold(v, "true")
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Python == "" {
		return fmt.Errorf("python interpreter must not be empty")
	}
	switch c.Strategy {
	case StrategyNarrow, StrategyQualify:
	default:
		return fmt.Errorf("unknown strategy %q (want %q or %q)", c.Strategy, StrategyNarrow, StrategyQualify)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}
