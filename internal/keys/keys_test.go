package keys

import (
	"crypto/ed25519"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestLoad_GeneratesAndPersists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys", "signing.key")

	km, err := Load(path, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, km)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(ed25519.SeedSize), info.Size())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestLoad_ReloadsSameKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "signing.key")

	first, err := Load(path, discardLogger())
	require.NoError(t, err)

	second, err := Load(path, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, first.VerificationKey(), second.VerificationKey())
}

func TestLoad_CorruptFileRegenerates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "signing.key")

	first, err := Load(path, discardLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not a seed"), 0o600))

	second, err := Load(path, discardLogger())
	require.NoError(t, err)

	assert.NotEqual(t, first.VerificationKey(), second.VerificationKey())

	// the regenerated key must have been persisted
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(ed25519.SeedSize), info.Size())
}

func TestKeyMaterial_SignAndVerify(t *testing.T) {
	t.Parallel()

	km, err := Load(filepath.Join(t.TempDir(), "signing.key"), discardLogger())
	require.NoError(t, err)

	message := []byte("pick three winners")
	sig := ed25519.Sign(km.SigningKey(), message)
	assert.True(t, ed25519.Verify(km.VerificationKey(), message, sig))
}
