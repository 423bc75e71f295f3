package health

import (
	"context"
	"testing"
	"time"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/events"
	"github.com/driftgate/gateway/internal/store"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, events.NewBus())
}

func TestUnknownProviderDefaultsAvailable(t *testing.T) {
	tr := newTestTracker(t)
	s, err := tr.Snapshot(context.Background(), domain.Groq)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if s.Status != Available || s.ConsecutiveFailures != 0 {
		t.Fatalf("expected default Available/0, got %+v", s)
	}
}

func TestRateLimitAppliesExponentialBackoffCappedAt60(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	var last State
	for i := 0; i < 8; i++ {
		if err := tr.RecordFailure(ctx, domain.Groq, domain.ErrRateLimit, "429"); err != nil {
			t.Fatalf("record failure: %v", err)
		}
		s, _ := tr.Snapshot(ctx, domain.Groq)
		last = s
	}
	if last.Status != Degraded {
		t.Fatalf("expected Degraded, got %v", last.Status)
	}
	if last.ConsecutiveFailures != 8 {
		t.Fatalf("expected 8 consecutive failures, got %d", last.ConsecutiveFailures)
	}
	wantOffset := 60 * time.Minute // min(60, 2^8) capped
	gotOffset := last.NextRetryAt.Sub(last.UpdatedAt)
	if gotOffset < wantOffset-time.Second || gotOffset > wantOffset+time.Second {
		t.Fatalf("expected ~%v backoff, got %v", wantOffset, gotOffset)
	}
}

func TestRateLimitBackoffSecondFailureIsFourMinutes(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	_ = tr.RecordFailure(ctx, domain.DeepSeek, domain.ErrRateLimit, "429")
	_ = tr.RecordFailure(ctx, domain.DeepSeek, domain.ErrRateLimit, "429")
	s, _ := tr.Snapshot(ctx, domain.DeepSeek)

	want := 4 * time.Minute
	got := s.NextRetryAt.Sub(s.UpdatedAt)
	if got < want-time.Second || got > want+time.Second {
		t.Fatalf("expected ~%v, got %v", want, got)
	}
}

func TestAuthFailureDisablesProviderFor24Hours(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	if err := tr.RecordFailure(ctx, domain.Together, domain.ErrAuthFailure, "401"); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	s, _ := tr.Snapshot(ctx, domain.Together)
	if s.Status != Unavailable {
		t.Fatalf("expected Unavailable, got %v", s.Status)
	}
	offset := s.NextRetryAt.Sub(s.UpdatedAt)
	if offset < 23*time.Hour || offset > 25*time.Hour {
		t.Fatalf("expected ~24h backoff, got %v", offset)
	}
	if s.Eligible(time.Now()) {
		t.Fatal("expected provider to be ineligible immediately after auth failure")
	}
}

func TestServiceOutageBecomesUnavailableAtFiveConsecutive(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_ = tr.RecordFailure(ctx, domain.OpenAI, domain.ErrServiceOutage, "500")
		s, _ := tr.Snapshot(ctx, domain.OpenAI)
		if s.Status != Degraded {
			t.Fatalf("expected Degraded before 5th failure, got %v at failure %d", s.Status, i+1)
		}
	}
	_ = tr.RecordFailure(ctx, domain.OpenAI, domain.ErrServiceOutage, "500")
	s, _ := tr.Snapshot(ctx, domain.OpenAI)
	if s.Status != Unavailable {
		t.Fatalf("expected Unavailable at 5th consecutive failure, got %v", s.Status)
	}
	if s.ConsecutiveFailures != 5 {
		t.Fatalf("expected 5 consecutive failures, got %d", s.ConsecutiveFailures)
	}
}

func TestClientErrorRecordsOnlyWithoutChangingStatusOrCounter(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	if err := tr.RecordSuccess(ctx, domain.Cohere); err != nil {
		t.Fatalf("record success: %v", err)
	}
	if err := tr.RecordFailure(ctx, domain.Cohere, domain.ErrClientError, "422"); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	s, _ := tr.Snapshot(ctx, domain.Cohere)
	if s.Status != Available {
		t.Fatalf("expected status unchanged (Available), got %v", s.Status)
	}
	if s.ConsecutiveFailures != 0 {
		t.Fatalf("expected failure counter unchanged (0), got %d", s.ConsecutiveFailures)
	}
}

func TestMalformedResponseFixedFiveMinuteBackoff(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	_ = tr.RecordFailure(ctx, domain.Google, domain.ErrMalformedResponse, "bad json")
	s, _ := tr.Snapshot(ctx, domain.Google)
	if s.Status != Degraded {
		t.Fatalf("expected Degraded, got %v", s.Status)
	}
	offset := s.NextRetryAt.Sub(s.UpdatedAt)
	if offset < 4*time.Minute+30*time.Second || offset > 5*time.Minute+30*time.Second {
		t.Fatalf("expected ~5m backoff, got %v", offset)
	}
}

func TestRecordSuccessResetsFailuresAndClearsNextRetry(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	_ = tr.RecordFailure(ctx, domain.HuggingFace, domain.ErrTransient, "boom")
	if err := tr.RecordSuccess(ctx, domain.HuggingFace); err != nil {
		t.Fatalf("record success: %v", err)
	}
	s, _ := tr.Snapshot(ctx, domain.HuggingFace)
	if s.Status != Available || s.ConsecutiveFailures != 0 || s.NextRetryAt != nil {
		t.Fatalf("expected clean Available state, got %+v", s)
	}
}

func TestSnapshotAllReturnsRowPerKnownProvider(t *testing.T) {
	tr := newTestTracker(t)
	all, err := tr.SnapshotAll(context.Background())
	if err != nil {
		t.Fatalf("snapshot all: %v", err)
	}
	if len(all) != len(domain.AllProviders) {
		t.Fatalf("expected %d rows, got %d", len(domain.AllProviders), len(all))
	}
}
