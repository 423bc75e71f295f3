package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Fatalf("expected default listen addr, got %q", cfg.Server.ListenAddr)
	}
	if cfg.RateLimit.PerSecond != 10 || cfg.RateLimit.Burst != 20 {
		t.Fatalf("expected default rate limit, got %+v", cfg.RateLimit)
	}
}

func TestLoadParsesTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[server]
listen_addr = ":9090"

[rate_limit]
per_second = 42
burst = 84
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Fatalf("expected file listen addr, got %q", cfg.Server.ListenAddr)
	}
	if cfg.RateLimit.PerSecond != 42 || cfg.RateLimit.Burst != 84 {
		t.Fatalf("expected file rate limit, got %+v", cfg.RateLimit)
	}
}

func TestDoubledUnderscoreEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`[server]
listen_addr = ":9090"
`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("APP__SERVER__LISTEN_ADDR", ":7000")
	t.Setenv("APP__RATE_LIMIT__PER_SECOND", "99")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.ListenAddr != ":7000" {
		t.Fatalf("expected env override, got %q", cfg.Server.ListenAddr)
	}
	if cfg.RateLimit.PerSecond != 99 {
		t.Fatalf("expected env override, got %d", cfg.RateLimit.PerSecond)
	}
}

func TestLegacyFlatEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`[server]
listen_addr = ":9090"
`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GATEWAY_LISTEN_ADDR", ":6000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.ListenAddr != ":6000" {
		t.Fatalf("expected legacy env override, got %q", cfg.Server.ListenAddr)
	}
}

func TestValidateRejectsNonPositiveRateLimit(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.PerSecond = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero rate limit")
	}
}

func TestXDGPathsRespectEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgcfg")
	if got := ConfigDir(); got != filepath.Join("/tmp/xdgcfg", "gateway") {
		t.Fatalf("unexpected config dir: %q", got)
	}
}
