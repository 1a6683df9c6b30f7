// Package config loads loom project configuration from .loom/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the loom configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the loom configuration directory
const ConfigDirName = ".loom"

// Config holds all loom configuration
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
}

// EmbeddingConfig holds configuration for the embedding components
type EmbeddingConfig struct {
	Model      string   `yaml:"model"`
	Device     string   `yaml:"device"`
	TokenEnv   string   `yaml:"token_env"`
	Prefix     string   `yaml:"prefix"`
	Suffix     string   `yaml:"suffix"`
	BatchSize  int      `yaml:"batch_size"`
	Progress   bool     `yaml:"progress"`
	Normalize  bool     `yaml:"normalize"`
	MetaFields []string `yaml:"meta_fields"`
	Separator  string   `yaml:"separator"`
}

// SearchConfig holds configuration for similarity search
type SearchConfig struct {
	Limit int `yaml:"limit"`
}

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrConfigNotFound is returned when no config directory can be found
var ErrConfigNotFound = errors.New("config directory not found")

// Load reads config from .loom/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking
// up the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFromPath(filepath.Join(configDir, ConfigFileName))
}

// LoadFromPath reads config from a specific path. Fields absent from the
// file keep their default values; the result is validated.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Unmarshal over the defaults so missing keys keep their values.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigDir locates the .loom directory by walking up from startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", fmt.Errorf("%w: no %s directory found from %s upward", ErrConfigNotFound, ConfigDirName, absDir)
		}
		currentDir = parentDir
	}
}

// Validate checks config invariants.
func Validate(cfg *Config) error {
	if cfg.Embedding.Model == "" {
		return fmt.Errorf("%w: embedding.model must not be empty", ErrInvalidConfig)
	}
	if cfg.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding.batch_size must be positive, got %d", ErrInvalidConfig, cfg.Embedding.BatchSize)
	}
	if cfg.Search.Limit <= 0 {
		return fmt.Errorf("%w: search.limit must be positive, got %d", ErrInvalidConfig, cfg.Search.Limit)
	}
	return nil
}

// Save writes the config to the given .loom directory.
func Save(cfg *Config, configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(configDir, ConfigFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
