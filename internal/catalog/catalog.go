// Package catalog is the model catalog described in SPEC_FULL.md §4.5: the
// active roster plus pending suggestions per (provider, workload), with
// hard-coded seed defaults inserted the first time a (provider, workload)
// pair is seen with no active entries.
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/gwerrors"
	"github.com/driftgate/gateway/internal/store"
)

// Entry mirrors domain.CatalogEntry.
type Entry struct {
	Provider  domain.Provider
	Workload  domain.Workload
	Model     string
	Status    string
	Priority  int
	Rationale string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Suggestion mirrors domain.Suggestion.
type Suggestion struct {
	Provider  domain.Provider
	Workload  domain.Workload
	Model     string
	Status    string
	Rationale string
	Metadata  map[string]string
}

// Catalog owns the provider_models / provider_model_suggestions tables.
type Catalog struct {
	db *store.Store
}

// New builds a Catalog backed by db.
func New(db *store.Store) *Catalog {
	return &Catalog{db: db}
}

// EnsureSeeded inserts the bundled defaults for (provider, workload) if no
// active entries exist yet. The seed is advisory: a later adoption call
// replaces it entirely.
func (c *Catalog) EnsureSeeded(ctx context.Context, provider domain.Provider, workload domain.Workload) error {
	existing, err := c.db.ActiveModels(ctx, string(provider), string(workload))
	if err != nil {
		return gwerrors.PersistenceError(err)
	}
	if len(existing) > 0 {
		return nil
	}
	seed, ok := seedFor(provider, workload)
	if !ok {
		return nil
	}
	return c.db.AdoptModel(ctx, string(provider), string(workload), seed.model, seed.priority, &seed.rationale)
}

// SeedModel returns the compiled-in default model for (provider, workload),
// if one exists, for the router's synthetic-candidate fallback when a
// forced provider has no active catalog entries at all (SPEC_FULL.md §4.7
// step 2).
func (c *Catalog) SeedModel(provider domain.Provider, workload domain.Workload) (string, bool) {
	seed, ok := seedFor(provider, workload)
	if !ok {
		return "", false
	}
	return seed.model, true
}

// EnsureAllSeeded runs EnsureSeeded for every (provider, workload) pair in
// the compiled-in seed table; called once at startup.
func (c *Catalog) EnsureAllSeeded(ctx context.Context) error {
	for key := range seedTable {
		if err := c.EnsureSeeded(ctx, key.provider, key.workload); err != nil {
			return err
		}
	}
	return nil
}

// Active returns active entries for (provider, workload) in priority order.
func (c *Catalog) Active(ctx context.Context, provider domain.Provider, workload domain.Workload) ([]Entry, error) {
	rows, err := c.db.ActiveModels(ctx, string(provider), string(workload))
	if err != nil {
		return nil, gwerrors.PersistenceError(err)
	}
	return entriesFromRows(rows), nil
}

// ActiveForWorkload returns active entries across all providers for workload.
func (c *Catalog) ActiveForWorkload(ctx context.Context, workload domain.Workload) ([]Entry, error) {
	rows, err := c.db.ActiveModelsForWorkload(ctx, string(workload))
	if err != nil {
		return nil, gwerrors.PersistenceError(err)
	}
	return entriesFromRows(rows), nil
}

// ActiveForModel returns active entries for a specific model name across
// providers within a workload.
func (c *Catalog) ActiveForModel(ctx context.Context, workload domain.Workload, model string) ([]Entry, error) {
	rows, err := c.db.ActiveEntriesForModel(ctx, string(workload), model)
	if err != nil {
		return nil, gwerrors.PersistenceError(err)
	}
	return entriesFromRows(rows), nil
}

// ActiveAll returns every active entry for provider, grouped by workload.
func (c *Catalog) ActiveAll(ctx context.Context, provider domain.Provider) (map[domain.Workload][]Entry, error) {
	rows, err := c.db.ActiveModelsAllWorkloads(ctx, string(provider))
	if err != nil {
		return nil, gwerrors.PersistenceError(err)
	}
	out := map[domain.Workload][]Entry{}
	for _, e := range entriesFromRows(rows) {
		out[e.Workload] = append(out[e.Workload], e)
	}
	return out, nil
}

// Adopt upserts an active entry and transitions any matching suggestion to
// adopted. When the only active entry for (provider, workload) is the
// untouched seed default, that seed entry is retired first, so the first
// adoption replaces the seed.
func (c *Catalog) Adopt(ctx context.Context, provider domain.Provider, model string, workload domain.Workload, priority int, rationale string) error {
	var r *string
	if rationale != "" {
		r = &rationale
	}
	if seed, ok := seedFor(provider, workload); ok && seed.model != model {
		existing, err := c.db.ActiveModels(ctx, string(provider), string(workload))
		if err != nil {
			return gwerrors.PersistenceError(err)
		}
		if len(existing) == 1 && existing[0].Model == seed.model &&
			existing[0].Rationale != nil && *existing[0].Rationale == seed.rationale {
			if err := c.db.RetireModel(ctx, string(provider), string(workload), seed.model); err != nil {
				return gwerrors.PersistenceError(err)
			}
		}
	}
	if err := c.db.AdoptModel(ctx, string(provider), string(workload), model, priority, r); err != nil {
		return gwerrors.PersistenceError(err)
	}
	return nil
}

// Retire marks an entry retired; history is preserved.
func (c *Catalog) Retire(ctx context.Context, provider domain.Provider, model string, workload domain.Workload) error {
	if err := c.db.RetireModel(ctx, string(provider), string(workload), model); err != nil {
		return gwerrors.PersistenceError(err)
	}
	return nil
}

// InsertSuggestions is idempotent on (provider, workload, model).
func (c *Catalog) InsertSuggestions(ctx context.Context, suggestions []Suggestion) (int, error) {
	rows := make([]store.SuggestionRow, 0, len(suggestions))
	for _, s := range suggestions {
		row := store.SuggestionRow{Provider: string(s.Provider), Workload: string(s.Workload), Model: s.Model}
		if s.Rationale != "" {
			r := s.Rationale
			row.Rationale = &r
		}
		if len(s.Metadata) > 0 {
			b, _ := json.Marshal(s.Metadata)
			m := string(b)
			row.Metadata = &m
		}
		rows = append(rows, row)
	}
	n, err := c.db.InsertSuggestions(ctx, rows)
	if err != nil {
		return 0, gwerrors.PersistenceError(err)
	}
	return n, nil
}

// Suggestions lists suggestions, filtering on any non-empty arguments.
func (c *Catalog) Suggestions(ctx context.Context, provider domain.Provider, workload domain.Workload, status string) ([]Suggestion, error) {
	rows, err := c.db.Suggestions(ctx, string(provider), string(workload), status)
	if err != nil {
		return nil, gwerrors.PersistenceError(err)
	}
	out := make([]Suggestion, 0, len(rows))
	for _, r := range rows {
		s := Suggestion{
			Provider: domain.Provider(r.Provider),
			Workload: domain.Workload(r.Workload),
			Model:    r.Model,
			Status:   r.Status,
		}
		if r.Rationale != nil {
			s.Rationale = *r.Rationale
		}
		out = append(out, s)
	}
	return out, nil
}

func entriesFromRows(rows []store.CatalogRow) []Entry {
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Entry{
			Provider:  domain.Provider(r.Provider),
			Workload:  domain.Workload(r.Workload),
			Model:     r.Model,
			Status:    r.Status,
			Priority:  r.Priority,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
		if r.Rationale != nil {
			e.Rationale = *r.Rationale
		}
		if r.Metadata != nil {
			_ = json.Unmarshal([]byte(*r.Metadata), &e.Metadata)
		}
		out = append(out, e)
	}
	return out
}
