package store

import (
	"context"
	"database/sql"
	"time"
)

// CredentialRow is the persisted shape of one credentials row: the token
// itself stays encrypted end to end, the store never sees plaintext.
type CredentialRow struct {
	Provider         string
	EncryptedBlob    []byte
	BaseURLOverride  *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UpsertCredential inserts or replaces the encrypted blob for a provider.
func (s *Store) UpsertCredential(ctx context.Context, provider string, blob []byte, baseURLOverride *string) error {
	now := nowString(time.Time{})
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (provider, encrypted_blob, base_url_override, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			encrypted_blob=excluded.encrypted_blob,
			base_url_override=excluded.base_url_override,
			updated_at=excluded.updated_at
	`, provider, blob, baseURLOverride, now, now)
	return err
}

// GetCredential returns the row for provider, or nil if none exists.
func (s *Store) GetCredential(ctx context.Context, provider string) (*CredentialRow, error) {
	var row CredentialRow
	var baseURL sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT provider, encrypted_blob, base_url_override, created_at, updated_at
		FROM credentials WHERE provider = ?
	`, provider).Scan(&row.Provider, &row.EncryptedBlob, &baseURL, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if baseURL.Valid {
		v := baseURL.String
		row.BaseURLOverride = &v
	}
	row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	row.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &row, nil
}

// DeleteCredential removes the row for provider. Not an error if absent.
func (s *Store) DeleteCredential(ctx context.Context, provider string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE provider = ?`, provider)
	return err
}

// ListCredentialProviders returns every provider with a stored credential.
func (s *Store) ListCredentialProviders(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT provider FROM credentials ORDER BY provider`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
