package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/driftgate/gateway/internal/credentials"
	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/gwerrors"
	"github.com/driftgate/gateway/internal/metrics"
	"github.com/driftgate/gateway/internal/store"
	"github.com/driftgate/gateway/internal/vault"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	v, err := vault.NewWithKey(make([]byte, 32))
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	creds := credentials.New(db, v)

	return &Server{creds: creds, db: db.DB(), metrics: metrics.New()}
}

func TestHandleHealthzUnavailableWithNoCredentials(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.handleHealthz(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with no credentialed providers, got %d", rec.Code)
	}
	var body healthzResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.DatabaseReachable {
		t.Fatal("expected database_reachable true")
	}
	if body.HasCredentialedProvider {
		t.Fatal("expected has_credentialed_provider false")
	}
}

func TestHandleHealthzOKWithCredential(t *testing.T) {
	s := newTestServer(t)
	if err := s.creds.Put(context.Background(), domain.Groq, "test-token", nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWriteGenerateErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid_request", gwerrors.InvalidRequest("bad body"), http.StatusBadRequest},
		{"provider_not_configured", gwerrors.ProviderNotConfigured(domain.Groq), http.StatusBadRequest},
		{"no_available_provider", gwerrors.NoAvailableProvider("none eligible"), http.StatusServiceUnavailable},
		{"deadline_exceeded", gwerrors.DeadlineExceeded(nil), http.StatusGatewayTimeout},
		{"all_providers_failed", gwerrors.AllProvidersFailed(nil), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeGenerateError(rec, tc.err)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.ErrorKind == "" {
				t.Fatal("expected non-empty error_kind")
			}
		})
	}
}

func TestHandleGenerateRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", nil)
	rec := httptest.NewRecorder()

	s.handleGenerate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}
