package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenos/haven/internal/config"
	"github.com/havenos/haven/internal/manifest"
	"github.com/havenos/haven/internal/secrets"
)

func testManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(`
id: nextcloud
name: Nextcloud
version: 1.0.0
port: 8081
env:
  FOO: bar
secrets:
  DB_PASSWORD:
    label: nextcloud-db
  SESSION_KEY:
    label: nextcloud-session
    bytes: 32
hidden_services:
  TOR_ADDR:
    dir: nextcloud-tor
addresses:
  APP_IP: 10.21.21.9
`))
	require.NoError(t, err)
	return m
}

func testDeriver(t *testing.T) *secrets.Deriver {
	t.Helper()
	d, err := secrets.New([]byte("test-seed"))
	require.NoError(t, err)
	return d
}

func TestResolveEnv_Golden(t *testing.T) {
	// Fixed root: no hidden service files exist there, so onion
	// addresses resolve to the placeholder and the rendering is fully
	// deterministic.
	cfg := &config.Config{Root: "/haven", Domain: "example.local"}

	env, err := ResolveEnv(cfg, testDeriver(t), testManifest(t))
	require.NoError(t, err)

	rendered := strings.Join(flattenEnv(env), "\n") + "\n"

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "resolved_env", []byte(rendered))
}

func TestResolveEnv_HiddenServiceHostname(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{Root: root, Domain: "example.local"}

	hsDir := filepath.Join(cfg.TorDataDir(), "nextcloud-tor")
	require.NoError(t, os.MkdirAll(hsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hsDir, "hostname"), []byte("abcdef.onion\n"), 0o644))

	env, err := ResolveEnv(cfg, testDeriver(t), testManifest(t))
	require.NoError(t, err)

	assert.Equal(t, "abcdef.onion", env["TOR_ADDR"])
	// The app's own hidden service dir was not provisioned.
	assert.Equal(t, config.PlaceholderHiddenService, env["APP_HIDDEN_SERVICE"])
}

func TestResolveEnv_Deterministic(t *testing.T) {
	cfg := &config.Config{Root: "/haven", Domain: "example.local"}

	first, err := ResolveEnv(cfg, testDeriver(t), testManifest(t))
	require.NoError(t, err)
	second, err := ResolveEnv(cfg, testDeriver(t), testManifest(t))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolveEnv_ManifestEnvCannotShadowPlatform(t *testing.T) {
	// Manifest sections win over fixed variables only for their own
	// declared keys; the platform set uses APP_-prefixed names that the
	// duplicate check in manifest validation keeps apart in practice.
	cfg := &config.Config{Root: "/haven", Domain: "example.local"}

	env, err := ResolveEnv(cfg, testDeriver(t), testManifest(t))
	require.NoError(t, err)

	assert.Equal(t, "nextcloud", env["APP_ID"])
	assert.Equal(t, "/haven/app-data/nextcloud", env["APP_DATA_DIR"])
	assert.Equal(t, "example.local", env["APP_DOMAIN"])
	assert.Equal(t, "8081", env["APP_PORT"])
}
