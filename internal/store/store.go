// Package store is the persistence layer: a single embedded SQLite database
// (modernc.org/sqlite, pure Go, no CGO) holding the five tables the rest of
// the gateway shares — credentials, provider_health, provider_models,
// provider_model_suggestions, provider_usage. Bootstrap is idempotent;
// callers never need to special-case "first run".
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the shared *sql.DB handle and exposes scoped transactions to
// the components layered on top of it.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at dsn (a file path, or ":memory:"
// for tests) in WAL mode with a bounded connection pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	// SQLite allows exactly one writer; keep the pool small to avoid
	// lock-contention thrash and a modest idle pool for read concurrency.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &Store{db: db}, nil
}

// DB returns the underlying handle, for callers that need a raw transaction.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn inside a transaction, committing on nil return and rolling
// back otherwise. Every multi-row mutation in this repository goes through
// this helper.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Migrate creates any missing tables/indices. Safe to call on every startup
// against an already-bootstrapped database.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS credentials (
			provider TEXT PRIMARY KEY,
			encrypted_blob BLOB NOT NULL,
			base_url_override TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS provider_health (
			provider TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			consecutive_failures INTEGER NOT NULL DEFAULT 0,
			last_success_at TEXT,
			last_failure_at TEXT,
			last_error_kind TEXT,
			next_retry_at TEXT,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS provider_models (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider TEXT NOT NULL,
			workload TEXT NOT NULL,
			model TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			priority INTEGER NOT NULL,
			rationale TEXT,
			metadata TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(provider, workload, model)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_models_lookup
			ON provider_models(provider, workload, status, priority)`,
		`CREATE TABLE IF NOT EXISTS provider_model_suggestions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider TEXT NOT NULL,
			workload TEXT NOT NULL,
			model TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			rationale TEXT,
			metadata TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(provider, workload, model)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_model_suggestions_lookup
			ON provider_model_suggestions(provider, workload, status)`,
		`CREATE TABLE IF NOT EXISTS provider_usage (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider TEXT NOT NULL,
			model TEXT,
			success INTEGER NOT NULL,
			latency_ms INTEGER NOT NULL,
			error_message TEXT,
			input_tokens INTEGER,
			output_tokens INTEGER,
			cost_micros INTEGER,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_usage_lookup
			ON provider_usage(provider, model, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return s.migrateLegacyUsageColumns(ctx)
}

// migrateLegacyUsageColumns adds columns that were introduced after the
// table's initial release, per the persistence layer's "add missing columns
// to legacy usage tables when detected" bootstrap requirement.
func (s *Store) migrateLegacyUsageColumns(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(provider_usage)`)
	if err != nil {
		return fmt.Errorf("inspect provider_usage: %w", err)
	}
	have := map[string]bool{}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			_ = rows.Close()
			return err
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_ = rows.Close()

	wanted := map[string]string{
		"input_tokens":  "INTEGER",
		"output_tokens": "INTEGER",
		"cost_micros":   "INTEGER",
	}
	for col, typ := range wanted {
		if have[col] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE provider_usage ADD COLUMN %s %s", col, typ)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}
	return nil
}

// nowString formats t (or time.Now().UTC() if zero) as a sortable RFC 3339
// timestamp, the textual form every timestamp in this schema uses.
func nowString(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s.String)
		if err != nil {
			return nil
		}
	}
	return &t
}
