package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MSTODO_CLIENT_ID", "client-id")
	t.Setenv("MSTODO_CLIENT_SECRET", "client-secret")
	// Keep defaults deterministic regardless of the test environment.
	t.Setenv("TZ", "")
	t.Setenv("MSTODO_SCAN_INTERVAL", "")
	t.Setenv("MSTODO_EXTERNAL_URL", "")
	t.Setenv("MSTODO_SENSOR_LISTS", "")
	t.Setenv("MSTODO_TIMEZONE", "")
	t.Setenv("MSTODO_TOKEN_FILE", "")
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("MSTODO_CLIENT_ID", "")
	t.Setenv("MSTODO_CLIENT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required variables")
	}
	for _, name := range []string{"MSTODO_CLIENT_ID", "MSTODO_CLIENT_SECRET"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ListenAddr != ":8123" {
		t.Errorf("ListenAddr = %q, want :8123", cfg.ListenAddr)
	}
	if cfg.ScanInterval != 15*time.Minute {
		t.Errorf("ScanInterval = %s, want 15m", cfg.ScanInterval)
	}
	if cfg.TimeZone != "UTC" {
		t.Errorf("TimeZone = %q, want UTC", cfg.TimeZone)
	}
	if filepath.Base(cfg.TokenPath) != TokenFile {
		t.Errorf("TokenPath = %q, want basename %s", cfg.TokenPath, TokenFile)
	}
	if got := cfg.RedirectURL(); got != "http://localhost:8123"+CallbackPath {
		t.Errorf("RedirectURL() = %q", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MSTODO_EXTERNAL_URL", "https://home.example.com/")
	t.Setenv("MSTODO_SCAN_INTERVAL", "5m")
	t.Setenv("MSTODO_TIMEZONE", "Europe/Berlin")
	t.Setenv("MSTODO_SENSOR_LISTS", "Groceries, Errands ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := cfg.RedirectURL(); got != "https://home.example.com"+CallbackPath {
		t.Errorf("RedirectURL() = %q, trailing slash not trimmed", got)
	}
	if cfg.ScanInterval != 5*time.Minute {
		t.Errorf("ScanInterval = %s, want 5m", cfg.ScanInterval)
	}
	if len(cfg.SensorLists) != 2 || cfg.SensorLists[0] != "Groceries" || cfg.SensorLists[1] != "Errands" {
		t.Errorf("SensorLists = %v", cfg.SensorLists)
	}
	if _, err := cfg.Location(); err != nil {
		t.Errorf("Location() error: %v", err)
	}
}

func TestLoadInvalidInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("MSTODO_SCAN_INTERVAL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid scan interval")
	}
}

func TestLoadInvalidTimeZone(t *testing.T) {
	setRequired(t)
	t.Setenv("MSTODO_TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}
