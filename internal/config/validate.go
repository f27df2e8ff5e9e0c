package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.Storage.Backend)
	}
	if c.Storage.QuotaBytes < 0 {
		return errors.New("storage.quota_bytes must be 0 (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.MaxDimension <= 0 {
		return errors.New("images.max_dimension must be positive")
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("images.quality must be between 1 and 100, got %d", c.Images.Quality)
	}
	if c.Images.Concurrency <= 0 {
		return errors.New("images.concurrency must be positive")
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.BackupInterval {
	case "manual", "daily", "weekly", "monthly":
	default:
		return fmt.Errorf("export.backup_interval must be manual, daily, weekly or monthly, got %q", c.Export.BackupInterval)
	}
	if c.Export.RetentionCount < 0 {
		return errors.New("export.retention_count must be 0 (keep all) or positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not a log level", c.Logging.Level)
	}
	return nil
}
