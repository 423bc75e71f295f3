package store

import (
	"context"
	"database/sql"
	"time"
)

// CatalogRow mirrors domain.CatalogEntry.
type CatalogRow struct {
	ID        int64
	Provider  string
	Workload  string
	Model     string
	Status    string
	Priority  int
	Rationale *string
	Metadata  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SuggestionRow mirrors domain.Suggestion.
type SuggestionRow struct {
	ID        int64
	Provider  string
	Workload  string
	Model     string
	Status    string
	Rationale *string
	Metadata  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveModels returns active catalog entries for (provider, workload),
// ordered by priority ascending then updated_at descending.
func (s *Store) ActiveModels(ctx context.Context, provider, workload string) ([]CatalogRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, workload, model, status, priority, rationale, metadata, created_at, updated_at
		FROM provider_models
		WHERE provider = ? AND workload = ? AND status = 'active'
		ORDER BY priority ASC, updated_at DESC
	`, provider, workload)
	if err != nil {
		return nil, err
	}
	return scanCatalogRows(rows)
}

// ActiveModelsAllWorkloads returns every active entry for provider, across
// all workloads, in catalog order.
func (s *Store) ActiveModelsAllWorkloads(ctx context.Context, provider string) ([]CatalogRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, workload, model, status, priority, rationale, metadata, created_at, updated_at
		FROM provider_models
		WHERE provider = ? AND status = 'active'
		ORDER BY workload, priority ASC, updated_at DESC
	`, provider)
	if err != nil {
		return nil, err
	}
	return scanCatalogRows(rows)
}

// ActiveModelsForWorkload returns every active entry across all providers
// for one workload, in priority order (tie-break left to the caller, which
// knows the router's fallback_order).
func (s *Store) ActiveModelsForWorkload(ctx context.Context, workload string) ([]CatalogRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, workload, model, status, priority, rationale, metadata, created_at, updated_at
		FROM provider_models
		WHERE workload = ? AND status = 'active'
		ORDER BY priority ASC, updated_at DESC
	`, workload)
	if err != nil {
		return nil, err
	}
	return scanCatalogRows(rows)
}

// ActiveEntriesForModel returns the active entries for a specific model name
// within one workload, across providers, used by candidate construction
// step 3 (hints.model set): "every provider that has an active entry with
// that model".
func (s *Store) ActiveEntriesForModel(ctx context.Context, workload, model string) ([]CatalogRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, workload, model, status, priority, rationale, metadata, created_at, updated_at
		FROM provider_models
		WHERE workload = ? AND model = ? AND status = 'active'
		ORDER BY priority ASC, updated_at DESC
	`, workload, model)
	if err != nil {
		return nil, err
	}
	return scanCatalogRows(rows)
}

func scanCatalogRows(rows *sql.Rows) ([]CatalogRow, error) {
	defer func() { _ = rows.Close() }()
	var out []CatalogRow
	for rows.Next() {
		var r CatalogRow
		var rationale, metadata sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.Provider, &r.Workload, &r.Model, &r.Status, &r.Priority,
			&rationale, &metadata, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if rationale.Valid {
			v := rationale.String
			r.Rationale = &v
		}
		if metadata.Valid {
			v := metadata.String
			r.Metadata = &v
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AdoptModel upserts an active entry for (provider, workload, model). If a
// matching suggestion row exists it is transitioned to 'adopted' in the same
// transaction.
func (s *Store) AdoptModel(ctx context.Context, provider, workload, model string, priority int, rationale *string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		now := nowString(time.Time{})
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO provider_models (provider, workload, model, status, priority, rationale, created_at, updated_at)
			VALUES (?, ?, ?, 'active', ?, ?, ?, ?)
			ON CONFLICT(provider, workload, model) DO UPDATE SET
				status='active',
				priority=excluded.priority,
				rationale=excluded.rationale,
				updated_at=excluded.updated_at
		`, provider, workload, model, priority, rationale, now, now); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE provider_model_suggestions SET status='adopted', updated_at=?
			WHERE provider = ? AND workload = ? AND model = ? AND status != 'adopted'
		`, now, provider, workload, model)
		if err != nil {
			return err
		}
		_, _ = res.RowsAffected()
		return nil
	})
}

// RetireModel marks an active entry retired; it remains in the table
// (history is preserved per the spec's lifecycle rules).
func (s *Store) RetireModel(ctx context.Context, provider, workload, model string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE provider_models SET status='retired', updated_at=?
		WHERE provider = ? AND workload = ? AND model = ?
	`, nowString(time.Time{}), provider, workload, model)
	return err
}

// InsertSuggestions inserts rows idempotently: an existing
// (provider, workload, model) is left unchanged, not overwritten.
func (s *Store) InsertSuggestions(ctx context.Context, rows []SuggestionRow) (inserted int, err error) {
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		now := nowString(time.Time{})
		for _, r := range rows {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO provider_model_suggestions
					(provider, workload, model, status, rationale, metadata, created_at, updated_at)
				VALUES (?, ?, ?, 'pending', ?, ?, ?, ?)
				ON CONFLICT(provider, workload, model) DO NOTHING
			`, r.Provider, r.Workload, r.Model, r.Rationale, r.Metadata, now, now)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n > 0 {
				inserted++
			}
		}
		return nil
	})
	return inserted, err
}

// Suggestions lists suggestion rows, filtering on any of the optional
// provider/workload/status arguments ("" means "no filter").
func (s *Store) Suggestions(ctx context.Context, provider, workload, status string) ([]SuggestionRow, error) {
	q := `SELECT id, provider, workload, model, status, rationale, metadata, created_at, updated_at
	      FROM provider_model_suggestions WHERE 1=1`
	var args []any
	if provider != "" {
		q += " AND provider = ?"
		args = append(args, provider)
	}
	if workload != "" {
		q += " AND workload = ?"
		args = append(args, workload)
	}
	if status != "" {
		q += " AND status = ?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC"
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SuggestionRow
	for rows.Next() {
		var r SuggestionRow
		var rationale, metadata sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.Provider, &r.Workload, &r.Model, &r.Status,
			&rationale, &metadata, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if rationale.Valid {
			v := rationale.String
			r.Rationale = &v
		}
		if metadata.Valid {
			v := metadata.String
			r.Metadata = &v
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
