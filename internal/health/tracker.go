// Package health implements the provider health tracker: it classifies
// attempt outcomes into a closed ErrorKind taxonomy, applies the
// deterministic backoff table from SPEC_FULL.md §4.4, and persists status so
// unhealthy providers stay avoided across restarts. Structurally grounded on
// the teacher's mutex-guarded in-memory map with an optional event-bus hook
// (internal/health/tracker.go in the reference implementation); the
// transition policy itself is this package's own, spec-exact rewrite.
package health

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/events"
	"github.com/driftgate/gateway/internal/gwerrors"
	"github.com/driftgate/gateway/internal/store"
)

// Status is the closed set of provider health states.
type Status string

const (
	Available   Status = "Available"
	Degraded    Status = "Degraded"
	Unavailable Status = "Unavailable"
)

// serviceOutageUnavailableThreshold is the N in "ServiceOutage after N>=5
// consecutive".
const serviceOutageUnavailableThreshold = 5

// State is the in-memory/persisted shape of one provider's health.
type State struct {
	Provider            domain.Provider
	Status              Status
	ConsecutiveFailures int
	LastSuccessAt       *time.Time
	LastFailureAt       *time.Time
	LastErrorKind       domain.ErrorKind
	NextRetryAt         *time.Time
	UpdatedAt           time.Time
}

// Eligible reports whether the provider may be selected by the router
// without a hard hint: Available, or the backoff window has elapsed.
func (s State) Eligible(now time.Time) bool {
	if s.Status == Available {
		return true
	}
	return s.NextRetryAt != nil && !now.Before(*s.NextRetryAt)
}

// Tracker owns the provider_health table and an in-memory cache over it.
type Tracker struct {
	mu    sync.RWMutex
	cache map[domain.Provider]State

	db  *store.Store
	bus *events.Bus
}

// New builds a Tracker backed by db. bus may be nil.
func New(db *store.Store, bus *events.Bus) *Tracker {
	return &Tracker{cache: make(map[domain.Provider]State), db: db, bus: bus}
}

// Snapshot returns the current state for provider, loading from the store
// on first access and defaulting to Available with zero failures if the
// provider has never been observed.
func (t *Tracker) Snapshot(ctx context.Context, provider domain.Provider) (State, error) {
	t.mu.RLock()
	s, ok := t.cache[provider]
	t.mu.RUnlock()
	if ok {
		return s, nil
	}

	row, err := t.db.GetHealth(ctx, string(provider))
	if err != nil {
		return State{}, gwerrors.PersistenceError(err)
	}
	s = stateFromRow(provider, row)

	t.mu.Lock()
	t.cache[provider] = s
	t.mu.Unlock()
	return s, nil
}

// SnapshotAll returns one row per known Provider enum value.
func (t *Tracker) SnapshotAll(ctx context.Context) ([]State, error) {
	out := make([]State, 0, len(domain.AllProviders))
	for _, p := range domain.AllProviders {
		s, err := t.Snapshot(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// RecordSuccess sets status Available, clears consecutive_failures and
// next_retry_at, and sets last_success_at=now.
func (t *Tracker) RecordSuccess(ctx context.Context, provider domain.Provider) error {
	now := time.Now().UTC()
	prev, err := t.Snapshot(ctx, provider)
	if err != nil {
		return err
	}
	next := State{
		Provider:            provider,
		Status:              Available,
		ConsecutiveFailures: 0,
		LastSuccessAt:       &now,
		LastFailureAt:       prev.LastFailureAt,
		LastErrorKind:       prev.LastErrorKind,
		NextRetryAt:         nil,
		UpdatedAt:           now,
	}
	return t.commit(ctx, prev, next)
}

// RecordFailure applies the deterministic transition table for kind and
// persists the result.
func (t *Tracker) RecordFailure(ctx context.Context, provider domain.Provider, kind domain.ErrorKind, message string) error {
	now := time.Now().UTC()
	prev, err := t.Snapshot(ctx, provider)
	if err != nil {
		return err
	}

	failures := prev.ConsecutiveFailures
	if kind != domain.ErrClientError {
		failures++
	}
	next := State{
		Provider:            provider,
		ConsecutiveFailures: failures,
		LastSuccessAt:       prev.LastSuccessAt,
		LastFailureAt:       &now,
		LastErrorKind:       kind,
		UpdatedAt:           now,
	}

	switch kind {
	case domain.ErrAuthFailure:
		next.Status = Unavailable
		retry := now.Add(24 * time.Hour)
		next.NextRetryAt = &retry
	case domain.ErrServiceOutage:
		if failures >= serviceOutageUnavailableThreshold {
			next.Status = Unavailable
			retry := now.Add(24 * time.Hour)
			next.NextRetryAt = &retry
		} else {
			next.Status = Degraded
			retry := now.Add(backoffMinutes(failures))
			next.NextRetryAt = &retry
		}
	case domain.ErrRateLimit, domain.ErrTimeout, domain.ErrTransient, domain.ErrUnknown:
		next.Status = Degraded
		retry := now.Add(backoffMinutes(failures))
		next.NextRetryAt = &retry
	case domain.ErrMalformedResponse:
		next.Status = Degraded
		retry := now.Add(5 * time.Minute)
		next.NextRetryAt = &retry
	case domain.ErrClientError:
		// Record only: status, next_retry_at, and consecutive_failures are
		// all unchanged — a client-input error is not a provider failure.
		next.Status = prev.Status
		next.NextRetryAt = prev.NextRetryAt
	default:
		next.Status = Degraded
		retry := now.Add(backoffMinutes(failures))
		next.NextRetryAt = &retry
	}

	return t.commit(ctx, prev, next)
}

// backoffMinutes computes min(60, 2^failures) minutes.
func backoffMinutes(failures int) time.Duration {
	minutes := math.Pow(2, float64(failures))
	if minutes > 60 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

func (t *Tracker) commit(ctx context.Context, prev, next State) error {
	row := store.HealthRow{
		Provider:            string(next.Provider),
		Status:              string(next.Status),
		ConsecutiveFailures: next.ConsecutiveFailures,
		LastSuccessAt:       next.LastSuccessAt,
		LastFailureAt:       next.LastFailureAt,
		NextRetryAt:         next.NextRetryAt,
		UpdatedAt:           next.UpdatedAt,
	}
	if next.LastErrorKind != "" {
		kind := string(next.LastErrorKind)
		row.LastErrorKind = &kind
	}
	if err := t.db.PutHealth(ctx, row); err != nil {
		return gwerrors.PersistenceError(err)
	}

	t.mu.Lock()
	t.cache[next.Provider] = next
	t.mu.Unlock()

	if t.bus != nil && prev.Status != next.Status {
		t.bus.Publish(events.Event{
			Type:     events.EventHealthChange,
			Provider: string(next.Provider),
			OldState: string(prev.Status),
			NewState: string(next.Status),
			Reason:   string(next.LastErrorKind),
		})
	}
	return nil
}

func stateFromRow(provider domain.Provider, row *store.HealthRow) State {
	if row == nil {
		return State{Provider: provider, Status: Available}
	}
	s := State{
		Provider:            provider,
		Status:              Status(row.Status),
		ConsecutiveFailures: row.ConsecutiveFailures,
		LastSuccessAt:       row.LastSuccessAt,
		LastFailureAt:       row.LastFailureAt,
		NextRetryAt:         row.NextRetryAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if row.LastErrorKind != nil {
		s.LastErrorKind = domain.ErrorKind(*row.LastErrorKind)
	}
	return s
}
