// Package config loads gantry configuration from an optional .gantry.yml
// file, falling back to defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultManifestFilename is the manifest filename gantry discovers.
const DefaultManifestFilename = "Stackfile"

// Config represents gantry configuration options.
type Config struct {
	// ManifestFilename overrides the manifest filename (default "Stackfile").
	ManifestFilename string `yaml:"manifest_filename"`

	// IgnoreFilenames lists the recognized ignore filenames.
	IgnoreFilenames []string `yaml:"ignore_filenames"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// ExcludeDirs lists directory names skipped during scanning, in
	// addition to VCS metadata.
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// HistoryDB is the path of the discovery-run history database.
	HistoryDB string `yaml:"history_db"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		ManifestFilename: DefaultManifestFilename,
		IgnoreFilenames:  []string{".stackignore", ".gitignore"},
		LogLevel:         "info",
		ExcludeDirs:      []string{"node_modules", "vendor"},
		HistoryDB:        filepath.Join(home, ".gantry", "history.db"),
	}
}

// Load reads configuration from path. A missing file is not an error: the
// defaults are returned unchanged. Fields absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ManifestFilename == "" {
		cfg.ManifestFilename = DefaultManifestFilename
	}
	if len(cfg.IgnoreFilenames) == 0 {
		cfg.IgnoreFilenames = DefaultConfig().IgnoreFilenames
	}
	return cfg, nil
}
