package store

import (
	"context"
	"database/sql"
	"time"
)

// HealthRow mirrors domain.HealthState, stored as text for sortable
// timestamps and nullable for the "never observed" fields.
type HealthRow struct {
	Provider            string
	Status              string
	ConsecutiveFailures int
	LastSuccessAt       *time.Time
	LastFailureAt       *time.Time
	LastErrorKind       *string
	NextRetryAt         *time.Time
	UpdatedAt           time.Time
}

// GetHealth returns the row for provider, or nil if never observed.
func (s *Store) GetHealth(ctx context.Context, provider string) (*HealthRow, error) {
	var row HealthRow
	var lastSuccess, lastFailure, nextRetry, errKind sql.NullString
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT provider, status, consecutive_failures, last_success_at, last_failure_at,
		       last_error_kind, next_retry_at, updated_at
		FROM provider_health WHERE provider = ?
	`, provider).Scan(&row.Provider, &row.Status, &row.ConsecutiveFailures,
		&lastSuccess, &lastFailure, &errKind, &nextRetry, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.LastSuccessAt = parseTime(lastSuccess)
	row.LastFailureAt = parseTime(lastFailure)
	row.NextRetryAt = parseTime(nextRetry)
	if errKind.Valid {
		v := errKind.String
		row.LastErrorKind = &v
	}
	row.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &row, nil
}

// ListHealth returns every persisted health row.
func (s *Store) ListHealth(ctx context.Context) ([]HealthRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, status, consecutive_failures, last_success_at, last_failure_at,
		       last_error_kind, next_retry_at, updated_at
		FROM provider_health
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []HealthRow
	for rows.Next() {
		var row HealthRow
		var lastSuccess, lastFailure, nextRetry, errKind sql.NullString
		var updatedAt string
		if err := rows.Scan(&row.Provider, &row.Status, &row.ConsecutiveFailures,
			&lastSuccess, &lastFailure, &errKind, &nextRetry, &updatedAt); err != nil {
			return nil, err
		}
		row.LastSuccessAt = parseTime(lastSuccess)
		row.LastFailureAt = parseTime(lastFailure)
		row.NextRetryAt = parseTime(nextRetry)
		if errKind.Valid {
			v := errKind.String
			row.LastErrorKind = &v
		}
		row.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, row)
	}
	return out, rows.Err()
}

// PutHealth upserts the full row for provider (the health tracker always
// writes a complete row; it never does partial column updates).
func (s *Store) PutHealth(ctx context.Context, row HealthRow) error {
	var lastSuccess, lastFailure, nextRetry, errKind sql.NullString
	if row.LastSuccessAt != nil {
		lastSuccess = sql.NullString{String: nowString(*row.LastSuccessAt), Valid: true}
	}
	if row.LastFailureAt != nil {
		lastFailure = sql.NullString{String: nowString(*row.LastFailureAt), Valid: true}
	}
	if row.NextRetryAt != nil {
		nextRetry = sql.NullString{String: nowString(*row.NextRetryAt), Valid: true}
	}
	if row.LastErrorKind != nil {
		errKind = sql.NullString{String: *row.LastErrorKind, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_health
			(provider, status, consecutive_failures, last_success_at, last_failure_at,
			 last_error_kind, next_retry_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			status=excluded.status,
			consecutive_failures=excluded.consecutive_failures,
			last_success_at=excluded.last_success_at,
			last_failure_at=excluded.last_failure_at,
			last_error_kind=excluded.last_error_kind,
			next_retry_at=excluded.next_retry_at,
			updated_at=excluded.updated_at
	`, row.Provider, row.Status, row.ConsecutiveFailures, lastSuccess, lastFailure,
		errKind, nextRetry, nowString(row.UpdatedAt))
	return err
}
