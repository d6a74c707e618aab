package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.FileName != "quintry.db" {
		t.Fatalf("expected default file name, got %q", cfg.Storage.FileName)
	}
	if filepath.Base(cfg.Storage.DataDir) != "quintry" {
		t.Fatalf("expected data dir to end in quintry, got %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.BusyTimeout != 5*time.Second {
		t.Fatalf("expected 5s busy timeout, got %v", cfg.Storage.BusyTimeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Directory != "" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Logging.MaxSize != 10 || cfg.Logging.MaxBackups != 3 || cfg.Logging.MaxAge != 7 || !cfg.Logging.Compress {
		t.Fatalf("unexpected rotation defaults: %+v", cfg.Logging)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("QUINTRY_STORAGE_DATA_DIR", dataDir)
	t.Setenv("QUINTRY_STORAGE_BUSY_TIMEOUT", "2s")
	t.Setenv("QUINTRY_LOGGING_LEVEL", "debug")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DataDir != dataDir {
		t.Fatalf("expected data dir %q, got %q", dataDir, cfg.Storage.DataDir)
	}
	if cfg.Storage.BusyTimeout != 2*time.Second {
		t.Fatalf("expected 2s busy timeout, got %v", cfg.Storage.BusyTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
	if got, want := cfg.Storage.DatabasePath(), filepath.Join(dataDir, "quintry.db"); got != want {
		t.Fatalf("DatabasePath = %q, want %q", got, want)
	}
}

func TestLoadConfigFileAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	configYAML := "storage:\n  file_name: history.db\nlogging:\n  max_backups: 9\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	const key = "QUINTRY_LOGGING_MAX_AGE"
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte(key+"=30\n"), 0o644); err != nil {
		t.Fatalf("write env file failed: %v", err)
	}
	_ = os.Unsetenv(key)
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	cfg, err := Load(dir, envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.FileName != "history.db" {
		t.Fatalf("expected file name from config.yaml, got %q", cfg.Storage.FileName)
	}
	if cfg.Logging.MaxBackups != 9 {
		t.Fatalf("expected max_backups from config.yaml, got %d", cfg.Logging.MaxBackups)
	}
	if cfg.Logging.MaxAge != 30 {
		t.Fatalf("expected max_age from env file, got %d", cfg.Logging.MaxAge)
	}
}

func TestLoadIgnoresMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("expected missing files to be ignored, got %v", err)
	}
}
