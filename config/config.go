// Package config provides configuration loading for Paintbrush using TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Browser settings
type Browser struct {
	ChromePath     string `json:"chromePath"`
	UserAgent      string `json:"userAgent"`
	Headless       bool   `json:"headless"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// Generation settings
type Generation struct {
	Provider string `json:"provider"` // "claude-api" or "claude-code", empty = auto
	APIKey   string `json:"apiKey"`   // falls back to ANTHROPIC_API_KEY
	Model    string `json:"model"`
}

// Storage settings
type Storage struct {
	Path string `json:"path"` // theme database, empty = default location
}

// Control server settings
type Control struct {
	Addr string `json:"addr"`
}

// Logging settings
type Logging struct {
	Level string `json:"level"` // "debug", "info", "warn", "error"
}

// Config is the main configuration struct
type Config struct {
	Browser    Browser    `json:"browser"`
	Generation Generation `json:"generation"`
	Storage    Storage    `json:"storage"`
	Control    Control    `json:"control"`
	Logging    Logging    `json:"logging"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Browser: Browser{
			ChromePath:     "",
			UserAgent:      "",
			Headless:       false,
			TimeoutSeconds: 30,
		},
		Generation: Generation{
			Provider: "",
			APIKey:   "",
			Model:    "",
		},
		Storage: Storage{
			Path: "",
		},
		Control: Control{
			Addr: "127.0.0.1:8743",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "paintbrush"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultStoragePath returns the theme database location used when the
// config leaves storage.path empty.
func DefaultStoragePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "themes.db"), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	cfg := Default()

	configPath, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	userCfg, err := loadFromTOML(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	return merge(cfg, userCfg), nil
}

// loadFromTOML loads a TOML config file and returns the config.
func loadFromTOML(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	return &cfg, nil
}

// merge layers user config on top of defaults.
// Only non-zero values from user config override defaults.
func merge(defaults, user *Config) *Config {
	result := *defaults

	if user.Browser.ChromePath != "" {
		result.Browser.ChromePath = user.Browser.ChromePath
	}
	if user.Browser.UserAgent != "" {
		result.Browser.UserAgent = user.Browser.UserAgent
	}
	if user.Browser.Headless {
		result.Browser.Headless = true
	}
	if user.Browser.TimeoutSeconds != 0 {
		result.Browser.TimeoutSeconds = user.Browser.TimeoutSeconds
	}

	if user.Generation.Provider != "" {
		result.Generation.Provider = user.Generation.Provider
	}
	if user.Generation.APIKey != "" {
		result.Generation.APIKey = user.Generation.APIKey
	}
	if user.Generation.Model != "" {
		result.Generation.Model = user.Generation.Model
	}

	if user.Storage.Path != "" {
		result.Storage.Path = user.Storage.Path
	}
	if user.Control.Addr != "" {
		result.Control.Addr = user.Control.Addr
	}
	if user.Logging.Level != "" {
		result.Logging.Level = user.Logging.Level
	}

	return &result
}

// ResolveAPIKey returns the configured key, falling back to the
// ANTHROPIC_API_KEY environment variable.
func (c *Config) ResolveAPIKey() string {
	if c.Generation.APIKey != "" {
		return c.Generation.APIKey
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

// DefaultTOML returns the default configuration as a TOML string.
// Used for --init-config to generate a user config file.
func DefaultTOML() string {
	return `# Paintbrush configuration
# Save to ~/.config/paintbrush/config.toml and customize
# Only include settings you want to change from defaults

# Browser settings
[browser]
chromePath = ""       # Path to Chrome/Chromium (empty = auto-detect)
userAgent = ""        # Override the browser user agent
headless = false      # Run the browser without a window
timeoutSeconds = 30   # Page navigation timeout

# Theme generation settings
[generation]
provider = ""         # "claude-api" or "claude-code" (empty = first available)
apiKey = ""           # Anthropic API key (empty = ANTHROPIC_API_KEY env)
model = ""            # Override the default model

# Storage settings
[storage]
path = ""             # Theme database path (empty = ~/.config/paintbrush/themes.db)

# Control server settings
[control]
addr = "127.0.0.1:8743"

# Logging settings
[logging]
level = "info"        # "debug", "info", "warn", "error"
`
}
