package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Backend constants
const (
	BackendRemote = "remote" // HTTP streaming backend
	BackendLocal  = "local"  // canned in-process backend, no network
)

// Config represents the flat thoughtstream configuration.
type Config struct {
	Backend   string `json:"backend"`              // "remote" or "local"
	BaseURL   string `json:"base_url,omitempty"`   // remote backend endpoint
	APIKeyEnv string `json:"api_key_env,omitempty"` // env var holding the API key
	Stream    bool   `json:"stream"`               // request streamed responses
	Debug     bool   `json:"debug,omitempty"`      // debug-level logging
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Backend:   BackendRemote,
		BaseURL:   "https://api.thoughtstream.dev",
		APIKeyEnv: "THOUGHTSTREAM_API_KEY",
		Stream:    true,
	}
}

// ConfigDir returns ~/.thoughtstream.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".thoughtstream"), nil
}

// LoadConfig reads config.json from the config directory. A missing
// file is not an error; defaults are returned instead.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(dir)
}

// LoadConfigFrom reads config.json from the specified directory.
func LoadConfigFrom(dir string) (*Config, error) {
	path := filepath.Join(dir, "config.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Backend != BackendRemote && cfg.Backend != BackendLocal {
		return nil, fmt.Errorf("invalid backend %q: must be %q or %q", cfg.Backend, BackendRemote, BackendLocal)
	}
	return cfg, nil
}

// SaveConfig writes config.json to the specified directory.
func SaveConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// APIKey resolves the API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
