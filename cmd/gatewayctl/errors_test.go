package main

import (
	"errors"
	"testing"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/gwerrors"
)

func TestExitCodeForMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 2},
		{"all providers failed", gwerrors.AllProvidersFailed(nil), 1},
		{"no available provider", gwerrors.NoAvailableProvider("none eligible"), 1},
		{"invalid request", gwerrors.InvalidRequest("bad"), 2},
		{"provider not configured", gwerrors.ProviderNotConfigured(domain.Groq), 2},
		{"persistence error", gwerrors.PersistenceError(errors.New("db down")), 3},
		{"credential corrupt", gwerrors.CredentialCorrupt(errors.New("bad key")), 3},
		{"suggestion parse error", gwerrors.SuggestionParseError(errors.New("bad json")), 3},
		{"deadline exceeded", gwerrors.DeadlineExceeded(nil), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCodeFor(tc.err); got != tc.want {
				t.Fatalf("exitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
