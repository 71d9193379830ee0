package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.APIURL != "http://localhost:8080/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %s, want 30s", cfg.RequestTimeout)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %s", cfg.TokenTTL)
	}
	key, err := cfg.SessionKey()
	if err != nil || key != nil {
		t.Errorf("SessionKey() = %v, %v; want nil, nil", key, err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TASKMANAGER_API_URL", "https://tasks.example.com/api/")
	t.Setenv("TASKMANAGER_REQUEST_TIMEOUT", "5s")
	t.Setenv("TASKMANAGER_SESSION_KEY_HEX", strings.Repeat("ab", 32))

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.APIURL != "https://tasks.example.com/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %s", cfg.RequestTimeout)
	}
	key, err := cfg.SessionKey()
	if err != nil || len(key) != 32 {
		t.Errorf("SessionKey() = %d bytes, %v", len(key), err)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKMANAGER_SERVER_PORT=9191\n"), 0600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TASKMANAGER_SERVER_PORT") })

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.ServerPort != "9191" {
		t.Errorf("ServerPort = %q, want 9191", cfg.ServerPort)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Config{APIURL: "not a url", RequestTimeout: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected invalid API_URL error")
	}
	cfg = Config{APIURL: "http://x", RequestTimeout: 0}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected timeout error")
	}
	cfg = Config{APIURL: "http://x", RequestTimeout: time.Second, SessionKeyHex: "abc"}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected session key error")
	}
}
