package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/benaskins/credkeep/internal/keychain"
)

const appName = "credkeep"

// Config holds persistent CLI configuration loaded from
// $XDG_CONFIG_HOME/credkeep/config.yaml.
type Config struct {
	ServicePrefix string `yaml:"service_prefix"`
	AuditLog      string `yaml:"audit_log"`
	MetadataPath  string `yaml:"metadata_path"`
	LogLevel      string `yaml:"log_level"`
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// StateDir returns the directory for the audit log and metadata.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns an empty Config and no error. An empty or all-comment file
// also returns an empty Config with no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// WithDefaults returns a copy with every unset field filled in.
func (c Config) WithDefaults() Config {
	if c.ServicePrefix == "" {
		c.ServicePrefix = keychain.DefaultServicePrefix
	}
	if c.AuditLog == "" {
		c.AuditLog = filepath.Join(StateDir(), "audit.log")
	}
	if c.MetadataPath == "" {
		c.MetadataPath = filepath.Join(StateDir(), "secret-metadata.json")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

// Level parses LogLevel. Empty means info.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
}
