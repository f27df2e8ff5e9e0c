package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	if err := c.normalizeExport(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultBackend
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = defaultDataDir
	}
	var err error
	if c.Storage.DataDir, err = expandPath(c.Storage.DataDir); err != nil {
		return fmt.Errorf("storage.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Storage.Slot) == "" {
		c.Storage.Slot = defaultSlot
	}
	return nil
}

func (c *Config) normalizeExport() error {
	if strings.TrimSpace(c.Export.Dir) == "" {
		c.Export.Dir = defaultExportDir
	}
	var err error
	if c.Export.Dir, err = expandPath(c.Export.Dir); err != nil {
		return fmt.Errorf("export.dir: %w", err)
	}
	c.Export.BackupInterval = strings.ToLower(strings.TrimSpace(c.Export.BackupInterval))
	if c.Export.BackupInterval == "" {
		c.Export.BackupInterval = defaultBackupInterval
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
