// Package config loads the n2p configuration file and validates the
// settings the pipeline depends on. Flags override file values; the file
// provides per-user defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	clierrors "github.com/sariola/notion2prompt/internal/errors"
)

// Defaults for the fetch pipeline.
const (
	DefaultDepth    = 5
	DefaultLimit    = 1000
	DefaultCacheTTL = 300
	DefaultTemplate = "claude-xml"
)

// Config represents the configuration file.
type Config struct {
	// Template is the default prompt template (claude-xml or default).
	Template string `yaml:"template,omitempty"`

	// Depth is the default maximum recursion depth.
	Depth *int `yaml:"depth,omitempty"`

	// Limit is the default maximum item count.
	Limit *int `yaml:"limit,omitempty"`

	// CacheTTL is the default cache lifetime in seconds.
	CacheTTL *int `yaml:"cache_ttl,omitempty"`

	// NoCache disables the response cache.
	NoCache *bool `yaml:"no_cache,omitempty"`

	// Concurrency overrides the fetch worker count.
	Concurrency *int `yaml:"concurrency,omitempty"`

	// Color is the default color mode (auto, always, never).
	Color string `yaml:"color,omitempty"`
}

// configPathFunc returns the default config path; swappable for tests.
var configPathFunc = defaultConfigPath

// SetConfigPathFunc sets the config path function for testing. Returns
// the original function so it can be restored.
func SetConfigPathFunc(fn func() (string, error)) func() (string, error) {
	orig := configPathFunc
	configPathFunc = fn
	return orig
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "notion2prompt", "config.yaml"), nil
}

// DefaultConfigPath returns ~/.config/notion2prompt/config.yaml.
func DefaultConfigPath() (string, error) {
	return configPathFunc()
}

// Load loads config from the default path, returning an empty config when
// the file does not exist.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return &cfg, nil
}

// Save writes config to the default path, creating the directory.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// GetDepth returns the configured depth or the default.
func (c *Config) GetDepth() int {
	if c.Depth != nil {
		return *c.Depth
	}
	return DefaultDepth
}

// GetLimit returns the configured limit or the default.
func (c *Config) GetLimit() int {
	if c.Limit != nil {
		return *c.Limit
	}
	return DefaultLimit
}

// GetCacheTTL returns the configured cache TTL in seconds or the default.
func (c *Config) GetCacheTTL() int {
	if c.CacheTTL != nil {
		return *c.CacheTTL
	}
	return DefaultCacheTTL
}

// GetTemplate returns the configured template or the default.
func (c *Config) GetTemplate() string {
	if c.Template != "" {
		return c.Template
	}
	return DefaultTemplate
}

// ValidateAPIKey checks the shape of a Notion API key before any network
// call: it must begin with secret_ or ntn_ and be at least 20 characters.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return &clierrors.ValidationError{Field: "api key", Message: "key is empty"}
	}
	if !strings.HasPrefix(key, "secret_") && !strings.HasPrefix(key, "ntn_") {
		return &clierrors.ValidationError{
			Field:   "api key",
			Message: "key must begin with secret_ or ntn_",
		}
	}
	if len(key) < 20 {
		return &clierrors.ValidationError{
			Field:   "api key",
			Message: fmt.Sprintf("key is too short (%d characters)", len(key)),
		}
	}
	return nil
}
