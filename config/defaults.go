// Package config loads snapvault's configuration from a TOML file,
// overlaying it on top of built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all snapvault configuration values.
type Config struct {
	AWSRegion  string `toml:"aws_region"`
	AWSProfile string `toml:"aws_profile"`

	// FlushAfter is the default number of registrations a backup run
	// accumulates before committing a snapshot.
	FlushAfter int `toml:"flush_after"`

	// ExcludeGlobs are supplemental doublestar ignore patterns applied on
	// top of the hard-coded exclusion tokens.
	ExcludeGlobs []string `toml:"exclude_globs"`

	// ConfigDir is where the config file itself lives. Not TOML-configurable.
	ConfigDir string `toml:"-"`
}

// DefaultConfig returns a Config with all defaults populated.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	configDir := filepath.Join(home, ".snapvault")

	return Config{
		AWSRegion:    "us-east-1",
		AWSProfile:   "",
		FlushAfter:   50,
		ExcludeGlobs: nil,
		ConfigDir:    configDir,
	}
}

// ConfigFilePath returns the path to the config file inside ConfigDir.
func (c Config) ConfigFilePath() string {
	return filepath.Join(c.ConfigDir, "config.toml")
}

// Load loads configuration from the default location
// (~/.snapvault/config.toml), falling back to defaults if the file does
// not exist. Warnings are returned for unrecognized TOML keys (likely
// typos).
func Load() (Config, []string, error) {
	defaults := DefaultConfig()
	return LoadFrom(defaults.ConfigFilePath(), defaults)
}

// LoadFrom loads configuration from path, overlaying TOML values onto the
// provided defaults. If the file does not exist, defaults are returned
// without error (first-run case). If it exists but is malformed, an error
// is returned.
func LoadFrom(path string, defaults Config) (Config, []string, error) {
	cfg := defaults

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil, nil
		}
		return Config{}, nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.ConfigDir = defaults.ConfigDir

	var warnings []string
	for _, key := range meta.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown config key: %s", key))
	}

	return cfg, warnings, nil
}

// EnsureDirs creates ConfigDir if it does not exist.
func (c Config) EnsureDirs() error {
	if c.ConfigDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.ConfigDir, 0o700); err != nil {
		return fmt.Errorf("creating directory %s: %w", c.ConfigDir, err)
	}
	return nil
}
