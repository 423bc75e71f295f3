package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/driftgate/gateway/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	cfg.Tracing.Enabled = false
	return cfg
}

func TestNewWiresEveryComponent(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	if a.Store == nil || a.Vault == nil || a.Credentials == nil || a.Catalog == nil ||
		a.Health == nil || a.Usage == nil || a.Events == nil || a.Metrics == nil ||
		a.Router == nil || a.Refresh == nil || a.Logger == nil {
		t.Fatal("expected every component to be non-nil")
	}
}

func TestNewSeedsCatalogOnFirstRun(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	entries, err := a.Catalog.ActiveForWorkload(context.Background(), "chat")
	if err != nil {
		t.Fatalf("ActiveForWorkload: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected seed entries after New")
	}
}

func TestCloseIsSafeAfterNew(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDefaultCredentialsKeyPathIsCreatedUnderStateDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	cfg.Tracing.Enabled = false

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	if _, err := os.Stat(filepath.Join(dir, "gateway", "credentials.key")); err != nil {
		t.Fatalf("expected credentials key to be created: %v", err)
	}
}
