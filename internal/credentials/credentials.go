// Package credentials is the credential store described in SPEC_FULL.md
// §4.2: put/get/delete/list over the store's encrypted credentials table,
// plus base-URL override resolution. All encryption is delegated to
// internal/vault; this package only ever sees ciphertext on the way in and
// out of the database.
package credentials

import (
	"context"
	"fmt"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/gwerrors"
	"github.com/driftgate/gateway/internal/store"
	"github.com/driftgate/gateway/internal/vault"
)

// Store is the credential store: encrypt/decrypt provider secrets at rest.
type Store struct {
	db    *store.Store
	vault *vault.Vault
}

// New builds a credential store backed by db and encrypted with v.
func New(db *store.Store, v *vault.Vault) *Store {
	return &Store{db: db, vault: v}
}

// Put encrypts token with the installation key and upserts the row for
// provider, along with an optional base URL override.
func (s *Store) Put(ctx context.Context, provider domain.Provider, token string, baseURLOverride *string) error {
	blob, err := s.vault.Encrypt([]byte(token))
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}
	if err := s.db.UpsertCredential(ctx, string(provider), blob, baseURLOverride); err != nil {
		return gwerrors.PersistenceError(err)
	}
	return nil
}

// GetToken returns the decrypted token for provider, or ("", false, nil) if
// no credential is stored. A decrypt failure is surfaced as
// CredentialCorrupt rather than silently returning absence.
func (s *Store) GetToken(ctx context.Context, provider domain.Provider) (string, bool, error) {
	row, err := s.db.GetCredential(ctx, string(provider))
	if err != nil {
		return "", false, gwerrors.PersistenceError(err)
	}
	if row == nil {
		return "", false, nil
	}
	plain, err := s.vault.Decrypt(row.EncryptedBlob)
	if err != nil {
		return "", false, gwerrors.CredentialCorrupt(err)
	}
	return string(plain), true, nil
}

// Delete removes the stored credential for provider, if any.
func (s *Store) Delete(ctx context.Context, provider domain.Provider) error {
	if err := s.db.DeleteCredential(ctx, string(provider)); err != nil {
		return gwerrors.PersistenceError(err)
	}
	return nil
}

// List returns every provider with a stored credential.
func (s *Store) List(ctx context.Context) ([]domain.Provider, error) {
	names, err := s.db.ListCredentialProviders(ctx)
	if err != nil {
		return nil, gwerrors.PersistenceError(err)
	}
	out := make([]domain.Provider, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Provider(n))
	}
	return out, nil
}

// ResolveBaseURL applies the precedence rule: explicit per-row override >
// configDefault > hardCodedDefault.
func (s *Store) ResolveBaseURL(ctx context.Context, provider domain.Provider, configDefault, hardCodedDefault string) (string, error) {
	row, err := s.db.GetCredential(ctx, string(provider))
	if err != nil {
		return "", gwerrors.PersistenceError(err)
	}
	if row != nil && row.BaseURLOverride != nil && *row.BaseURLOverride != "" {
		return *row.BaseURLOverride, nil
	}
	if configDefault != "" {
		return configDefault, nil
	}
	return hardCodedDefault, nil
}
