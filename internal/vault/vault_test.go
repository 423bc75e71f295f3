package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, keySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v, err := NewWithKey(testKey(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	plaintext := []byte("sk-super-secret-token")
	blob, err := v.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(blob, plaintext) {
		t.Fatal("ciphertext must not contain the plaintext")
	}
	got, err := v.Decrypt(blob)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("expected %q, got %q", plaintext, got)
	}
}

func TestDecryptCorruptBlobReturnsErrCorrupt(t *testing.T) {
	v, _ := NewWithKey(testKey(t))
	blob, _ := v.Encrypt([]byte("hello"))
	blob[len(blob)-1] ^= 0xFF // flip a bit in the tag

	if _, err := v.Decrypt(blob); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecryptTruncatedBlobReturnsErrCorrupt(t *testing.T) {
	v, _ := NewWithKey(testKey(t))
	if _, err := v.Decrypt([]byte("short")); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecryptWrongKeyReturnsErrCorrupt(t *testing.T) {
	v1, _ := NewWithKey(testKey(t))
	otherKey := testKey(t)
	otherKey[0] ^= 0xFF
	v2, _ := NewWithKey(otherKey)

	blob, _ := v1.Encrypt([]byte("hello"))
	if _, err := v2.Decrypt(blob); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoadOrCreateGeneratesAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "credentials.key")

	v1, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}

	v2, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	blob, err := v1.Encrypt([]byte("round-trip"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got, err := v2.Decrypt(blob)
	if err != nil {
		t.Fatalf("decrypt with reloaded key: %v", err)
	}
	if string(got) != "round-trip" {
		t.Fatalf("expected round-trip, got %q", got)
	}
}
