package store

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestCredentialsCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertCredential(ctx, "openai", []byte("blob-v1"), nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetCredential(ctx, "openai")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || string(got.EncryptedBlob) != "blob-v1" {
		t.Fatalf("expected blob-v1, got %+v", got)
	}

	override := "https://example.test"
	if err := s.UpsertCredential(ctx, "openai", []byte("blob-v2"), &override); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, err = s.GetCredential(ctx, "openai")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if string(got.EncryptedBlob) != "blob-v2" || got.BaseURLOverride == nil || *got.BaseURLOverride != override {
		t.Fatalf("expected updated row, got %+v", got)
	}

	providers, err := s.ListCredentialProviders(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(providers) != 1 || providers[0] != "openai" {
		t.Fatalf("expected [openai], got %v", providers)
	}

	if err := s.DeleteCredential(ctx, "openai"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = s.GetCredential(ctx, "openai")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after delete, got %+v", got)
	}
}

func TestHealthPutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	row, err := s.GetHealth(ctx, "groq")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row != nil {
		t.Fatalf("expected no row before first write, got %+v", row)
	}

	if err := s.PutHealth(ctx, HealthRow{Provider: "groq", Status: "Available"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	row, err = s.GetHealth(ctx, "groq")
	if err != nil {
		t.Fatalf("get after put: %v", err)
	}
	if row == nil || row.Status != "Available" {
		t.Fatalf("expected Available, got %+v", row)
	}

	all, err := s.ListHealth(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 row, got %d", len(all))
	}
}

func TestCatalogAdoptRetireActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AdoptModel(ctx, "groq", "chat", "llama-3.1-8b", 10, nil); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	if err := s.AdoptModel(ctx, "deepseek", "chat", "deepseek-chat", 15, nil); err != nil {
		t.Fatalf("adopt: %v", err)
	}

	active, err := s.ActiveModelsForWorkload(ctx, "chat")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 2 || active[0].Provider != "groq" {
		t.Fatalf("expected groq first, got %+v", active)
	}

	if err := s.RetireModel(ctx, "groq", "chat", "llama-3.1-8b"); err != nil {
		t.Fatalf("retire: %v", err)
	}
	active, err = s.ActiveModelsForWorkload(ctx, "chat")
	if err != nil {
		t.Fatalf("active after retire: %v", err)
	}
	if len(active) != 1 || active[0].Provider != "deepseek" {
		t.Fatalf("expected only deepseek active, got %+v", active)
	}
}

func TestSuggestionsIdempotentInsertAndAdopt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows := []SuggestionRow{
		{Provider: "huggingface", Workload: "chat", Model: "zephyr-7b"},
	}
	n, err := s.InsertSuggestions(ctx, rows)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 inserted, got %d", n)
	}

	// Re-inserting the same (provider, workload, model) is a no-op.
	n, err = s.InsertSuggestions(ctx, rows)
	if err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 inserted on duplicate, got %d", n)
	}

	if err := s.AdoptModel(ctx, "huggingface", "chat", "zephyr-7b", 40, nil); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	suggestions, err := s.Suggestions(ctx, "huggingface", "chat", "adopted")
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("expected suggestion transitioned to adopted, got %+v", suggestions)
	}
}

func TestUsageInsertAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	model := "llama-3.1-8b"
	if err := s.InsertUsage(ctx, UsageRow{Provider: "groq", Model: &model, Success: true, LatencyMs: 120}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertUsage(ctx, UsageRow{Provider: "groq", Model: &model, Success: false, LatencyMs: 80}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	stats, err := s.Stats(ctx, "groq", []string{model})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalCalls != 2 {
		t.Fatalf("expected 2 calls, got %d", stats.TotalCalls)
	}
	if stats.SuccessRate != 0.5 {
		t.Fatalf("expected 0.5 success rate, got %f", stats.SuccessRate)
	}
}
