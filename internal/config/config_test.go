package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/kimhsiao/squishylog/internal/config"
	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "squishylog", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Storage.DataDir != filepath.Join(tempHome, ".local", "share", "squishylog") {
		t.Fatalf("unexpected data dir: %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.Backend != config.BackendFile || cfg.Storage.QuotaBytes != 5<<20 {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Images.MaxDimension != 1200 || cfg.Images.Quality != 80 {
		t.Fatalf("unexpected image defaults: %+v", cfg.Images)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "SQLite"
data_dir = "/tmp/squishy-data"

[images]
quality = 70

[logging]
format = "JSON"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Storage.Backend != config.BackendSQLite {
		t.Fatalf("backend = %q", cfg.Storage.Backend)
	}
	if cfg.Storage.DataDir != "/tmp/squishy-data" {
		t.Fatalf("data dir = %q", cfg.Storage.DataDir)
	}
	if cfg.Images.Quality != 70 || cfg.Images.MaxDimension != 1200 {
		t.Fatalf("images = %+v", cfg.Images)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format = %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"backend":  "[storage]\nbackend = \"s3\"\n",
		"quality":  "[images]\nquality = 0\n",
		"quota":    "[storage]\nquota_bytes = -1\n",
		"interval": "[export]\nbackup_interval = \"hourly\"\n",
		"bind":     "[server]\nbind = \"nope\"\n",
		"level":    "[logging]\nlevel = \"loud\"\n",
		"unknown":  "[storage]\nbucket = \"x\"\n",
		"syntax":   "[storage\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := config.Load(writeConfig(t, body))
			if !apperrors.Is(err, apperrors.ErrConfig) {
				t.Fatalf("Load error = %v, want CONFIG_INVALID", err)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != path || cfg == nil {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "quota_bytes") {
		t.Fatalf("sample config missing quota: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("sample config does not decode: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != cfg {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", decoded, cfg)
	}
}
