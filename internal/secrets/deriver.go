// Package secrets derives per-app secret material from the master seed.
//
// Nothing in this package is stored: every value is recomputed on demand
// from the seed file and a per-purpose identifier, so the same inputs
// always yield the same output. Apps receive stable credentials without
// the platform keeping a secret database.
package secrets

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrEmptySeed is returned when the seed file is missing or empty.
	// Deriving from an empty key would produce a predictable value, so
	// the deriver refuses to operate.
	ErrEmptySeed = errors.New("secrets: master seed is empty")

	// ErrEmptyIdentifier is returned for an empty derivation identifier.
	ErrEmptyIdentifier = errors.New("secrets: identifier is empty")
)

// hkdfSalt domain-separates haven key expansion from other HKDF users of
// the same seed.
var hkdfSalt = []byte("haven-app-secrets")

// Deriver computes deterministic secrets from a master seed.
//
// Thread-safety: Deriver is immutable after construction and safe for
// concurrent use.
type Deriver struct {
	seed []byte
}

// New creates a Deriver from raw seed bytes.
func New(seed []byte) (*Deriver, error) {
	seed = bytes.TrimSpace(seed)
	if len(seed) == 0 {
		return nil, ErrEmptySeed
	}
	return &Deriver{seed: seed}, nil
}

// LoadFile reads the seed from path, falling back to fallbackPath when the
// primary file does not exist. Both missing, or an empty file, is an error.
func LoadFile(path, fallbackPath string) (*Deriver, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && fallbackPath != "" {
		data, err = os.ReadFile(fallbackPath)
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return New(data)
}

// Derive returns the lowercase hex HMAC-SHA256 digest of identifier keyed
// by the master seed.
func (d *Deriver) Derive(identifier string) (string, error) {
	if identifier == "" {
		return "", ErrEmptyIdentifier
	}
	mac := hmac.New(sha256.New, d.seed)
	mac.Write([]byte(identifier))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// DeriveKey expands the master seed into n bytes of key material using
// HKDF-SHA256 with identifier as the info string. Used for manifest
// secrets that declare an explicit byte length.
func (d *Deriver) DeriveKey(identifier string, n int) ([]byte, error) {
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}
	if n <= 0 {
		return nil, fmt.Errorf("secrets: invalid key length %d", n)
	}
	reader := hkdf.New(sha256.New, d.seed, hkdfSalt, []byte(identifier))
	key := make([]byte, n)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
