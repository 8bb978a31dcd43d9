package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/sigscan/internal/constants"
)

// Loader resolves the configuration directory and reads and writes the
// config file in it.
type Loader struct {
	baseDir string
}

// NewLoader creates a config loader. The base directory is resolved in this
// order:
//  1. SIGSCAN_CONFIG environment variable.
//  2. User home directory (~/).
//  3. /tmp/sigscan-fallback for environments without a home directory.
//
// Files never exist in the fallback, so Load returns defaults with
// environment overrides applied.
func NewLoader() *Loader {
	if baseDir := os.Getenv(constants.ConfigDirEnv); baseDir != "" {
		return &Loader{baseDir: baseDir}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return &Loader{baseDir: homeDir}
	}

	return &Loader{baseDir: filepath.Join(os.TempDir(), "sigscan-fallback")}
}

// ConfigDir returns the directory that holds the config file.
func (l *Loader) ConfigDir() string {
	return filepath.Join(l.baseDir, constants.DefaultDir)
}

// ConfigPath returns the path to the config file.
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.ConfigDir(), constants.ConfigFile)
}

// Load reads the config file, applies environment overrides and validates
// the result. A missing file yields the defaults.
func (l *Loader) Load() (*Layered, error) {
	return l.LoadFrom(l.ConfigPath())
}

// LoadFrom is Load with an explicit file path.
func (l *Loader) LoadFrom(path string) (*Layered, error) {
	layered, err := LoadLayered(path)
	if err != nil {
		return nil, err
	}
	if err := layered.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return layered, nil
}

// Save writes cfg to the config file, creating the directory if needed.
func (l *Loader) Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid configuration: %w", err)
	}

	//nolint:gosec // G301: Directory needs standard permissions for traversal
	if err := os.MkdirAll(l.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	//nolint:gosec // G306: Config file is not sensitive
	if err := os.WriteFile(l.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
