package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears a variable for the test; t.Setenv registers the
// restore before os.Unsetenv removes it.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoad_Defaults(t *testing.T) {
	unsetenv(t, "HAVEN_ROOT")
	unsetenv(t, "HAVEN_DOMAIN")
	unsetenv(t, "HAVEN_FANOUT_WORKERS")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/home/haven/haven", cfg.Root)
	assert.Equal(t, 3, cfg.FanOutWorkers)
	// Domain falls back to <hostname>.local.
	assert.NotEmpty(t, cfg.Domain)
	assert.Contains(t, cfg.Domain, ".local")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HAVEN_ROOT", "/srv/haven")
	t.Setenv("HAVEN_DOMAIN", "box.example.com")
	t.Setenv("HAVEN_FANOUT_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/haven", cfg.Root)
	assert.Equal(t, "box.example.com", cfg.Domain)
	assert.Equal(t, 8, cfg.FanOutWorkers)
}

func TestPaths(t *testing.T) {
	cfg := &Config{Root: "/haven"}

	assert.Equal(t, filepath.Join("/haven", "apps"), cfg.AppsDir())
	assert.Equal(t, filepath.Join("/haven", "apps", "nextcloud"), cfg.AppDir("nextcloud"))
	assert.Equal(t, filepath.Join("/haven", "app-data", "nextcloud"), cfg.DataDir("nextcloud"))
	assert.Equal(t, filepath.Join("/haven", "db", "haven.db"), cfg.RegistryPath())
	assert.Equal(t, filepath.Join("/haven", "db", "user.json"), cfg.LegacyStatePath())
	assert.Equal(t, filepath.Join("/haven", "db", "seed"), cfg.SeedPath())
	assert.Equal(t, filepath.Join("/haven", ".seed"), cfg.FallbackSeedPath())
	assert.Equal(t, filepath.Join("/haven", "tor", "data", "app-x", "hostname"), cfg.HiddenServiceHostnamePath("app-x"))
	assert.Equal(t, filepath.Join("/haven", "docker-compose.yml"), cfg.BaseComposePath())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Root: t.TempDir()}
	assert.NoError(t, cfg.Validate())

	cfg = &Config{Root: filepath.Join(t.TempDir(), "missing")}
	assert.Error(t, cfg.Validate())
}
