// Package vault is the encryption primitive behind the credential store: an
// AES-256-GCM authenticated stream cipher (nonce || ciphertext || tag) keyed
// by a 32-byte installation key. Unlike a password-derived vault, this key
// has no lock/unlock lifecycle — it is generated once with crypto/rand and
// persisted at a fixed, user-only-readable path; a missing key file triggers
// one-time generation.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const keySize = 32 // AES-256

// ErrCorrupt is returned when a ciphertext fails to decrypt: truncated,
// tampered, or encrypted under a different key.
var ErrCorrupt = errors.New("vault: ciphertext is corrupt or was encrypted under a different key")

// Vault encrypts and decrypts byte strings with a single installation-wide
// key. It has no notion of locking: the key is either loaded or it isn't.
type Vault struct {
	key []byte
}

// LoadOrCreate reads the 32-byte installation key at path, generating and
// persisting one (mode 0600, parent directory created if needed) if the
// file does not exist yet.
func LoadOrCreate(path string) (*Vault, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != keySize {
			return nil, fmt.Errorf("vault: key file %s has unexpected length %d", path, len(key))
		}
		return &Vault{key: key}, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("vault: read key file: %w", err)
	}

	key = make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("vault: generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("vault: create key directory: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("vault: write key file: %w", err)
	}
	return &Vault{key: key}, nil
}

// NewWithKey wraps an already-loaded 32-byte key directly, for tests.
func NewWithKey(key []byte) (*Vault, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("vault: key must be %d bytes, got %d", keySize, len(key))
	}
	cp := make([]byte, keySize)
	copy(cp, key)
	return &Vault{key: cp}, nil
}

// Encrypt seals plaintext as nonce||ciphertext||tag under the vault key.
func (v *Vault) Encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := v.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("vault: generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. A truncated, tampered, or
// wrong-key blob returns ErrCorrupt rather than a transport-specific error,
// so callers can map it directly to CredentialCorrupt.
func (v *Vault) Decrypt(blob []byte) ([]byte, error) {
	gcm, err := v.gcm()
	if err != nil {
		return nil, err
	}
	if len(blob) < gcm.NonceSize() {
		return nil, ErrCorrupt
	}
	nonce, ciphertext := blob[:gcm.NonceSize()], blob[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrCorrupt
	}
	return plain, nil
}

func (v *Vault) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("vault: build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: build gcm: %w", err)
	}
	return gcm, nil
}
