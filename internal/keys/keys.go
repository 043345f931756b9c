// Package keys owns the Ed25519 key pair that signs and verifies the
// issued tokens. The private seed is persisted on disk so tokens stay
// valid across restarts; without the file every restart starts a fresh
// key epoch and invalidates all outstanding tokens.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

type KeyMaterial struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// Load reads the seed file at path, or generates and persists a fresh
// key when the file is missing. A file that cannot be parsed is logged
// and treated as missing rather than failing startup.
func Load(path string, l *slog.Logger) (*KeyMaterial, error) {
	seed, err := os.ReadFile(path)
	if err == nil {
		if len(seed) == ed25519.SeedSize {
			priv := ed25519.NewKeyFromSeed(seed)
			return &KeyMaterial{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
		}
		l.Warn("signing key file is not a valid ed25519 seed, generating a new key",
			"path", path, "size", len(seed))
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	return generate(path)
}

func generate(path string) (*KeyMaterial, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create signing key directory: %w", err)
		}
	}
	if err := os.WriteFile(path, priv.Seed(), 0o600); err != nil {
		return nil, fmt.Errorf("persist signing key: %w", err)
	}

	return &KeyMaterial{priv: priv, pub: pub}, nil
}

func (k *KeyMaterial) SigningKey() ed25519.PrivateKey { return k.priv }

func (k *KeyMaterial) VerificationKey() ed25519.PublicKey { return k.pub }
