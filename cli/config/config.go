// Package config handles CLI configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTokenRef is the keystore entry used when token_ref is not set.
const DefaultTokenRef = "default"

// Config represents the CLI configuration file. Unset fields leave the
// library defaults in place.
type Config struct {
	Address    string        `yaml:"address,omitempty"`
	Port       int           `yaml:"port,omitempty"`
	TLS        *bool         `yaml:"tls,omitempty"`
	VerifyPeer *bool         `yaml:"verify_peer,omitempty"`
	CAFile     string        `yaml:"ca_file,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	RetryLimit *int          `yaml:"retry_limit,omitempty"`
	Proxy      *ProxyConfig  `yaml:"proxy,omitempty"`
	APIVersion string        `yaml:"api_version,omitempty"`
	TokenRef   string        `yaml:"token_ref,omitempty"`
}

// ProxyConfig holds the HTTP proxy settings. The password is never stored
// in the file; pass it with --proxy-pass or WIT_PROXY_PASS.
type ProxyConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.wit/config.yaml
// - Windows: %USERPROFILE%\.wit\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		// Fallback to current directory
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".wit", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// TokenName returns the keystore entry holding the API token.
func (c *Config) TokenName() string {
	if c.TokenRef == "" {
		return DefaultTokenRef
	}
	return c.TokenRef
}
