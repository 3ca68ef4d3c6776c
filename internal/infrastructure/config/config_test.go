package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[remote]
base_url = "https://api.example.com"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected sqlite default driver, got %q", cfg.Storage.Driver)
	}
	if cfg.App.Namespace != "ledgersync" {
		t.Errorf("expected default namespace, got %q", cfg.App.Namespace)
	}
	if cfg.App.LogLevel != "info" {
		t.Errorf("expected default log level, got %q", cfg.App.LogLevel)
	}
	if cfg.Remote.ProbeIntervalSec != 30 {
		t.Errorf("expected default probe interval, got %d", cfg.Remote.ProbeIntervalSec)
	}
}

func TestLoadRejectsMissingRemoteURL(t *testing.T) {
	path := writeConfig(t, `
[storage]
driver = "memory"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty remote.base_url")
	}
}

func TestLoadRejectsRedisWithoutAddr(t *testing.T) {
	path := writeConfig(t, `
[storage]
driver = "redis"

[remote]
base_url = "https://api.example.com"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for redis driver without addr")
	}
}

func TestEnvOverridesToken(t *testing.T) {
	t.Setenv("LEDGERSYNC_REMOTE_TOKEN", "from-env")
	path := writeConfig(t, `
[remote]
base_url = "https://api.example.com"
token = "from-file"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Remote.Token != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Remote.Token)
	}
}
