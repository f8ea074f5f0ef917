// Package config handles global and per-project refcheck configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInvalid marks configuration that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the global refcheck configuration.
type Config struct {
	// ReportsDir overrides where report artifacts are written. Relative
	// paths are resolved against the project root.
	ReportsDir string `toml:"reports_dir"`

	// History records every audit in .refcheck/history.db (default: true).
	History *bool `toml:"history"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	// Example values: "monokai", "dracula", "github", "nord".
	CodeTheme string `toml:"code_theme"`
}

// HistoryEnabled reports whether runs should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c.History == nil || *c.History
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config %s: %v", ErrInvalid, path, err)
	}
	return &config, nil
}

// LoadResolved loads an explicitly given config file, or the default one.
func LoadResolved(explicitPath string) (*Config, error) {
	if strings.TrimSpace(explicitPath) != "" {
		return LoadFrom(explicitPath)
	}
	return Load()
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitPath string) string {
	if strings.TrimSpace(explicitPath) != "" {
		return explicitPath
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/refcheck/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "refcheck", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "refcheck", "config.toml")
	}

	// Last resort fallback
	return filepath.Join(".", "config.toml")
}

const defaultConfig = `# refcheck configuration

# Where report artifacts are written (relative to the project root).
# reports_dir = "تقارير للمشروع"

# Record every audit in .refcheck/history.db.
# history = true

# Optional UI accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefault creates a default config file at path if it doesn't exist.
// It reports whether a new file was written.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
