// Package config loads SquishyLog configuration from TOML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

//go:embed sample_config.toml
var sampleConfig string

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Storage contains configuration for the persisted collection slot.
type Storage struct {
	Backend    string `toml:"backend"`
	DataDir    string `toml:"data_dir"`
	Slot       string `toml:"slot"`
	QuotaBytes int64  `toml:"quota_bytes"`
}

// Images contains configuration for the image pipeline.
type Images struct {
	MaxDimension int `toml:"max_dimension"`
	Quality      int `toml:"quality"`
	Concurrency  int `toml:"concurrency"`
}

// Export contains configuration for backups.
type Export struct {
	Dir            string `toml:"dir"`
	BackupInterval string `toml:"backup_interval"`
	RetentionCount int    `toml:"retention_count"`
}

// Server contains configuration for the desktop server.
type Server struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for SquishyLog.
type Config struct {
	Storage Storage `toml:"storage"`
	Images  Images  `toml:"images"`
	Export  Export  `toml:"export"`
	Server  Server  `toml:"server"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/squishylog/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path and whether that file exists. A missing file
// yields defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, apperrors.Wrap(apperrors.ErrConfig, "resolve config path", err)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, apperrors.Wrap(apperrors.ErrConfig, "open config", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, apperrors.Wrap(apperrors.ErrConfig, "parse config", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, apperrors.Wrap(apperrors.ErrConfig, "normalize config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, apperrors.Wrap(apperrors.ErrConfig, "invalid config", err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("squishy.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Encode renders the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
