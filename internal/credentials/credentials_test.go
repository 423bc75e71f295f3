package credentials

import (
	"context"
	"testing"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/gwerrors"
	"github.com/driftgate/gateway/internal/store"
	"github.com/driftgate/gateway/internal/vault"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	key := make([]byte, 32)
	v, err := vault.NewWithKey(key)
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	return New(db, v)
}

func TestPutGetDeleteRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, domain.OpenAI, "sk-abc123", nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	token, ok, err := s.GetToken(ctx, domain.OpenAI)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || token != "sk-abc123" {
		t.Fatalf("expected sk-abc123, got %q ok=%v", token, ok)
	}

	if err := s.Delete(ctx, domain.OpenAI); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, err = s.GetToken(ctx, domain.OpenAI)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if ok {
		t.Fatal("expected no credential after delete")
	}
}

func TestGetTokenMissingReturnsFalseNotError(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.GetToken(context.Background(), domain.Groq)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for unconfigured provider")
	}
}

func TestCredentialCorruptSurfacesDistinctError(t *testing.T) {
	db, _ := store.Open(":memory:")
	_ = db.Migrate(context.Background())
	defer func() { _ = db.Close() }()

	key := make([]byte, 32)
	v1, _ := vault.NewWithKey(key)
	s := New(db, v1)
	if err := s.Put(context.Background(), domain.Cohere, "token", nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	otherKey := make([]byte, 32)
	otherKey[0] = 1
	v2, _ := vault.NewWithKey(otherKey)
	s2 := New(db, v2)

	_, _, err := s2.GetToken(context.Background(), domain.Cohere)
	gwErr, ok := gwerrors.As(err)
	if !ok || gwErr.Kind != gwerrors.KindCredentialCorrupt {
		t.Fatalf("expected CredentialCorrupt, got %v", err)
	}
}

func TestListReturnsEveryConfiguredProvider(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.Put(ctx, domain.Groq, "g", nil)
	_ = s.Put(ctx, domain.Anthropic, "a", nil)

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 providers, got %v", list)
	}
}

func TestResolveBaseURLPrecedence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	url, err := s.ResolveBaseURL(ctx, domain.Together, "", "https://hardcoded.example")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != "https://hardcoded.example" {
		t.Fatalf("expected hard-coded default, got %s", url)
	}

	url, err = s.ResolveBaseURL(ctx, domain.Together, "https://config.example", "https://hardcoded.example")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != "https://config.example" {
		t.Fatalf("expected config default, got %s", url)
	}

	override := "https://override.example"
	if err := s.Put(ctx, domain.Together, "token", &override); err != nil {
		t.Fatalf("put: %v", err)
	}
	url, err = s.ResolveBaseURL(ctx, domain.Together, "https://config.example", "https://hardcoded.example")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != override {
		t.Fatalf("expected per-row override, got %s", url)
	}
}
