// Package config provides configuration loading and structs for the mdsearch server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Corpus  CorpusConfig  `yaml:"corpus"`
	Search  SearchConfig  `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds the path of the document database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CorpusConfig holds the directories that make up the file corpus.
type CorpusConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// Watch keeps the index in sync with file changes while the server runs.
	Watch *bool `yaml:"watch"`
}

// RecursiveOrDefault returns whether to walk directories recursively; defaults to true when unset.
func (c *CorpusConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// WatchOrDefault returns whether to watch the corpus directories; defaults to true when unset.
func (c *CorpusConfig) WatchOrDefault() bool {
	if c.Watch != nil {
		return *c.Watch
	}
	return true
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	DefaultLimit int      `yaml:"default_limit"`
	MaxLimit     int      `yaml:"max_limit"`
	Prefix       *bool    `yaml:"prefix"`
	Fuzzy        *float64 `yaml:"fuzzy"`
	MaxFuzzy     int      `yaml:"max_fuzzy"`
	// Boost is the per-field score multiplier. Fields not listed get 1.
	Boost         map[string]float64 `yaml:"boost"`
	SnippetLength int                `yaml:"snippet_length"`
	Suggestions   *bool              `yaml:"suggestions"`
}

// PrefixOrDefault returns whether prefix matching is on; defaults to true when unset.
func (s *SearchConfig) PrefixOrDefault() bool {
	if s.Prefix != nil {
		return *s.Prefix
	}
	return true
}

// FuzzyOrDefault returns the fuzzy setting; defaults to 0.2 when unset.
func (s *SearchConfig) FuzzyOrDefault() float64 {
	if s.Fuzzy != nil {
		return *s.Fuzzy
	}
	return DefaultFuzzy
}

// SuggestionsOrDefault returns whether "did you mean" suggestions are on; defaults to true when unset.
func (s *SearchConfig) SuggestionsOrDefault() bool {
	if s.Suggestions != nil {
		return *s.Suggestions
	}
	return true
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Corpus.Directories {
		cfg.Corpus.Directories[i] = expandPath(cfg.Corpus.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Search.Fuzzy != nil && *c.Search.Fuzzy < 0 {
		return fmt.Errorf("invalid config: search.fuzzy must not be negative")
	}
	for field, b := range c.Search.Boost {
		if b < 0 {
			return fmt.Errorf("invalid config: search.boost.%s must not be negative", field)
		}
	}
	if c.Search.DefaultLimit < 0 || c.Search.MaxLimit < 0 {
		return fmt.Errorf("invalid config: search limits must not be negative")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" and other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, strings.TrimPrefix(path, "~/"))
	}
	return path
}
