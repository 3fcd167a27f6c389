package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigSource represents where the configuration was loaded from
type ConfigSource string

const (
	SourceCLI        ConfigSource = "cli"         // From command line argument
	SourceConfigFile ConfigSource = "config-file" // From ~/.config/jsq/config.yaml
	SourceDefault    ConfigSource = "default"     // Default configuration
)

// DefaultRequestTimeout is used when a context does not set its own.
const DefaultRequestTimeout = 5 * time.Second

// Config represents the application configuration
type Config struct {
	Contexts       []Context `yaml:"contexts"`
	DefaultContext string    `yaml:"default_context"`
	currentContext *Context
	source         ConfigSource // Where this config was loaded from
	sourcePath     string       // Specific file path or server URL
}

// Context represents a NATS server connection context
type Context struct {
	Name    string `yaml:"name"`
	Server  string `yaml:"server"`
	Token   string `yaml:"token,omitempty"`
	Creds   string `yaml:"creds,omitempty"`
	Prefix  string `yaml:"api_prefix,omitempty"`
	Timeout string `yaml:"request_timeout,omitempty"`
}

// RequestTimeout parses the context's request timeout, falling back to the
// default when unset or unparsable.
func (c *Context) RequestTimeout() time.Duration {
	if c.Timeout == "" {
		return DefaultRequestTimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}

// expandPath expands environment variables, tilde, and relative paths
// Supports:
// - Environment variables: $HOME, ${HOME}, $VAR_NAME
// - Tilde expansion: ~/path or ~
// - Relative paths: ./creds/file.creds (relative to configDir)
func expandPath(path string, configDir string) (string, error) {
	if path == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(path)

	if strings.HasPrefix(expanded, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		expanded = filepath.Join(homeDir, expanded[2:])
	} else if expanded == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		expanded = homeDir
	}

	if !filepath.IsAbs(expanded) && configDir != "" {
		expanded = filepath.Join(configDir, expanded)
	}

	return filepath.Clean(expanded), nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Contexts: []Context{
			{
				Name:   "local",
				Server: "nats://localhost:4222",
			},
		},
		DefaultContext: "local",
		source:         SourceDefault,
		sourcePath:     "built-in default",
	}
}

// Load loads configuration from file or creates a default. A server URL
// given on the command line takes precedence over everything else.
func Load(configPath, serverURL string) (*Config, error) {
	if serverURL != "" {
		cfg := &Config{
			Contexts: []Context{
				{
					Name:   "cli",
					Server: serverURL,
				},
			},
			DefaultContext: "cli",
			source:         SourceCLI,
			sourcePath:     serverURL,
		}
		cfg.currentContext = &cfg.Contexts[0]
		return cfg, nil
	}

	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".config", "jsq", "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.source = SourceConfigFile
	cfg.sourcePath = configPath

	// Expand credential paths with env vars, tilde, and relative paths
	configDir := filepath.Dir(configPath)
	for i := range cfg.Contexts {
		if cfg.Contexts[i].Creds != "" {
			expanded, err := expandPath(cfg.Contexts[i].Creds, configDir)
			if err != nil {
				return nil, fmt.Errorf("failed to expand creds path for context '%s': %w", cfg.Contexts[i].Name, err)
			}
			cfg.Contexts[i].Creds = expanded
		}
		if cfg.Contexts[i].Token != "" && strings.Contains(cfg.Contexts[i].Token, "$") {
			cfg.Contexts[i].Token = os.ExpandEnv(cfg.Contexts[i].Token)
		}
	}

	if len(cfg.Contexts) == 0 {
		return nil, fmt.Errorf("config file '%s' defines no contexts", configPath)
	}

	for i := range cfg.Contexts {
		if cfg.Contexts[i].Name == cfg.DefaultContext {
			cfg.currentContext = &cfg.Contexts[i]
			break
		}
	}
	if cfg.currentContext == nil {
		cfg.currentContext = &cfg.Contexts[0]
	}

	return cfg, nil
}

// Save writes the configuration to the given path
func (c *Config) Save(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CurrentContext returns the active context
func (c *Config) CurrentContext() *Context {
	if c.currentContext != nil {
		return c.currentContext
	}
	if len(c.Contexts) > 0 {
		return &c.Contexts[0]
	}
	return nil
}

// Source returns where this configuration was loaded from
func (c *Config) Source() (ConfigSource, string) {
	return c.source, c.sourcePath
}
