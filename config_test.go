package lockwatch

import (
	"strings"
	"testing"
	"time"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESAME_API_KEY", "test-api-key")
	t.Setenv("SESAME_DEVICE_IDS", "uuid-a,uuid-b")
	t.Setenv("SESAME_DEVICE_NAMES", "Front Door,Office")
	t.Setenv("SESAME_SECRETS", "0102030405060708090a0b0c0d0e0f10,000102030405060708090a0b0c0d0e0f")
	t.Setenv("SESAME_BASE_URL", "")
	t.Setenv("CHECK_INTERVAL_SECONDS", "")
	t.Setenv("FEISHU_APP_ID", "cli_test")
	t.Setenv("FEISHU_APP_SECRET", "secret")
	t.Setenv("LOCKWATCH_CHAT_ID", "oc_test")
	t.Setenv("LOCKWATCH_HISTORY_TAG", "")
	t.Setenv("LOCKWATCH_ALERT_MAX_AGE", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setValidEnv(t)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.VendorBaseURL != defaultVendorBaseURL {
		t.Fatalf("base url = %s", cfg.VendorBaseURL)
	}
	if cfg.PollInterval != 60*time.Second {
		t.Fatalf("poll interval = %s", cfg.PollInterval)
	}
	if cfg.HistoryTag != "LockWatch" {
		t.Fatalf("history tag = %s", cfg.HistoryTag)
	}
	if cfg.AlertMaxAge != 24*time.Hour {
		t.Fatalf("alert max age = %s", cfg.AlertMaxAge)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(cfg.Devices))
	}
	if cfg.Devices[0].Name != "Front Door" || cfg.Devices[1].Name != "Office" {
		t.Fatalf("unexpected device names: %+v", cfg.Devices)
	}
}

func TestLoadConfigNameFallsBackToID(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SESAME_DEVICE_NAMES", "Front Door")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Devices[1].Name != "uuid-b" {
		t.Fatalf("expected second device name to fall back to id, got %q", cfg.Devices[1].Name)
	}

	// A blank entry inside the list falls back too.
	t.Setenv("SESAME_DEVICE_NAMES", ",Office")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Devices[0].Name != "uuid-a" {
		t.Fatalf("expected blank name to fall back to id, got %q", cfg.Devices[0].Name)
	}
}

func TestLoadConfigCountMismatch(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SESAME_SECRETS", "0102030405060708090a0b0c0d0e0f10")
	cfg, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error for id/secret count mismatch")
	}
	if cfg != nil {
		t.Fatal("expected no partial config on validation failure")
	}
	if !strings.Contains(err.Error(), "same number of entries") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SESAME_API_KEY", "")
	t.Setenv("FEISHU_APP_ID", "")
	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error for missing required values")
	}
	// All problems are reported together.
	if !strings.Contains(err.Error(), "SESAME_API_KEY") || !strings.Contains(err.Error(), "FEISHU_APP_ID") {
		t.Fatalf("expected aggregated error, got: %v", err)
	}
}

func TestLoadConfigInterval(t *testing.T) {
	setValidEnv(t)
	t.Setenv("CHECK_INTERVAL_SECONDS", "15")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Fatalf("poll interval = %s", cfg.PollInterval)
	}

	t.Setenv("CHECK_INTERVAL_SECONDS", "abc")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for non-integer interval")
	}

	t.Setenv("CHECK_INTERVAL_SECONDS", "0")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestLoadConfigRejectsBadSecret(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SESAME_SECRETS", "0102030405060708090a0b0c0d0e0f10,nothex")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for malformed secret")
	}
}
