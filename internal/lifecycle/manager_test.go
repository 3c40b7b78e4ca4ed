package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenos/haven/internal/config"
	"github.com/havenos/haven/internal/manifest"
	"github.com/havenos/haven/internal/registry"
	"github.com/havenos/haven/internal/secrets"
)

// fakeOrchestrator records invocations and fails on demand.
type fakeOrchestrator struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error // app id -> error returned by Up/Down
}

func newFakeOrchestrator() *fakeOrchestrator {
	return &fakeOrchestrator{fail: make(map[string]error)}
}

func (f *fakeOrchestrator) record(verb, app string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, verb+" "+app)
	return f.fail[app]
}

func (f *fakeOrchestrator) Compose(ctx context.Context, m *manifest.Manifest, env map[string]string, args ...string) error {
	return f.record("compose", m.ID)
}

func (f *fakeOrchestrator) Up(ctx context.Context, m *manifest.Manifest, env map[string]string) error {
	return f.record("up", m.ID)
}

func (f *fakeOrchestrator) Down(ctx context.Context, m *manifest.Manifest, env map[string]string) error {
	return f.record("down", m.ID)
}

func (f *fakeOrchestrator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// newTestManager builds a Manager over a temp root with the given app
// definitions.
func newTestManager(t *testing.T, apps ...string) (*Manager, *fakeOrchestrator, *config.Config) {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{Root: root, Domain: "test.local", FanOutWorkers: 3}

	for _, app := range apps {
		dir := cfg.AppDir(app)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		doc := fmt.Sprintf("id: %s\nname: %s\nversion: 1.0.0\n", app, app)
		require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.Filename), []byte(doc), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte("services: {}\n"), 0o644))
	}

	reg, err := registry.Open(cfg.RegistryPath())
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	deriver, err := secrets.New([]byte("test-seed"))
	require.NoError(t, err)

	orch := newFakeOrchestrator()
	ids := make([]string, 0, 32)
	for i := 0; i < 32; i++ {
		ids = append(ids, fmt.Sprintf("op-%02d", i))
	}
	mgr := New(cfg, reg, deriver, orch, NewFixedGenerator(ids...))
	return mgr, orch, cfg
}

func TestInstall_AppearsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	mgr, orch, _ := newTestManager(t, "nextcloud")

	require.NoError(t, mgr.Install(ctx, "nextcloud"))
	// Install is idempotent for the set.
	require.NoError(t, mgr.Install(ctx, "nextcloud"))

	installed, err := mgr.InstalledApps(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"nextcloud"}, installed)

	assert.Equal(t, []string{"up nextcloud", "up nextcloud"}, orch.calls)
}

func TestInstall_CopiesTemplate(t *testing.T) {
	ctx := context.Background()
	mgr, _, cfg := newTestManager(t, "nextcloud")

	require.NoError(t, mgr.Install(ctx, "nextcloud"))

	copied := filepath.Join(cfg.DataDir("nextcloud"), "docker-compose.yml")
	if _, err := os.Stat(copied); err != nil {
		t.Errorf("template not copied into data dir: %v", err)
	}
}

func TestInstall_UnknownApp(t *testing.T) {
	ctx := context.Background()
	mgr, orch, _ := newTestManager(t)

	err := mgr.Install(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUnknownApp)
	assert.Zero(t, orch.callCount(), "orchestrator must not run for unknown apps")
}

func TestInstall_RejectsPathEscape(t *testing.T) {
	ctx := context.Background()
	mgr, orch, _ := newTestManager(t)

	err := mgr.Install(ctx, "../etc")
	assert.ErrorIs(t, err, ErrUnknownApp)
	assert.Zero(t, orch.callCount())
}

func TestInstall_OrchestratorFailureKeepsInstall(t *testing.T) {
	ctx := context.Background()
	mgr, orch, _ := newTestManager(t, "nextcloud")
	orch.fail["nextcloud"] = errors.New("exit status 125")

	err := mgr.Install(ctx, "nextcloud")
	require.Error(t, err)

	// No rollback: the app stays in the set for manual recovery.
	installed, lerr := mgr.InstalledApps(ctx)
	require.NoError(t, lerr)
	assert.Equal(t, []string{"nextcloud"}, installed)
}

func TestUninstall_RemovesAppAndData(t *testing.T) {
	ctx := context.Background()
	mgr, orch, cfg := newTestManager(t, "nextcloud")

	require.NoError(t, mgr.Install(ctx, "nextcloud"))
	require.NoError(t, mgr.Uninstall(ctx, "nextcloud"))

	installed, err := mgr.InstalledApps(ctx)
	require.NoError(t, err)
	assert.Empty(t, installed)

	if _, err := os.Stat(cfg.DataDir("nextcloud")); !os.IsNotExist(err) {
		t.Error("data directory should be gone after uninstall")
	}

	assert.Equal(t, []string{"up nextcloud", "down nextcloud"}, orch.calls)
}

func TestStart_NotInstalled(t *testing.T) {
	ctx := context.Background()
	mgr, orch, _ := newTestManager(t, "nextcloud")

	err := mgr.Start(ctx, "nextcloud")
	assert.ErrorIs(t, err, ErrNotInstalled)
	assert.Zero(t, orch.callCount(), "orchestrator must not run for not-installed apps")
}

func TestStartStop_Installed(t *testing.T) {
	ctx := context.Background()
	mgr, orch, _ := newTestManager(t, "nextcloud")

	require.NoError(t, mgr.Install(ctx, "nextcloud"))
	require.NoError(t, mgr.Stop(ctx, "nextcloud"))
	require.NoError(t, mgr.Start(ctx, "nextcloud"))

	assert.Equal(t, []string{"up nextcloud", "down nextcloud", "up nextcloud"}, orch.calls)
}

func TestRestart(t *testing.T) {
	ctx := context.Background()
	mgr, orch, _ := newTestManager(t, "nextcloud")

	require.NoError(t, mgr.Install(ctx, "nextcloud"))
	require.NoError(t, mgr.Restart(ctx, "nextcloud"))

	assert.Equal(t, []string{"up nextcloud", "down nextcloud", "up nextcloud"}, orch.calls)
}

func TestOperationsLogged(t *testing.T) {
	ctx := context.Background()
	mgr, orch, cfg := newTestManager(t, "nextcloud")

	require.NoError(t, mgr.Install(ctx, "nextcloud"))
	orch.fail["nextcloud"] = errors.New("exit status 1")
	require.Error(t, mgr.Stop(ctx, "nextcloud"))

	reg, err := registry.Open(cfg.RegistryPath())
	require.NoError(t, err)
	defer reg.Close()

	ops, err := reg.Operations(ctx, "nextcloud")
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "install", ops[0].Action)
	assert.Equal(t, registry.StatusOK, ops[0].Status)
	assert.Equal(t, "stop", ops[1].Action)
	assert.Equal(t, registry.StatusFailed, ops[1].Status)
}

func TestFanOut_CollectsPerAppResults(t *testing.T) {
	ctx := context.Background()
	mgr, orch, _ := newTestManager(t, "alpha", "beta", "gamma")

	for _, app := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, mgr.Install(ctx, app))
	}
	orch.fail["beta"] = errors.New("exit status 1")

	results := mgr.FanOut(ctx, []string{"alpha", "beta", "gamma"}, 2, mgr.Stop)

	require.Len(t, results, 3)
	assert.Equal(t, "alpha", results[0].App)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "beta", results[1].App)
	assert.Error(t, results[1].Err, "a failing app is reported, not dropped")
	assert.Equal(t, "gamma", results[2].App)
	assert.NoError(t, results[2].Err)

	assert.Equal(t, []string{"beta"}, FailedApps(results))

	err := FanOutError("stop", results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beta")
}

func TestFanOut_AllSucceed(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(t, "alpha", "beta")

	for _, app := range []string{"alpha", "beta"} {
		require.NoError(t, mgr.Install(ctx, app))
	}

	results := mgr.FanOut(ctx, []string{"alpha", "beta"}, 0, mgr.Stop)
	require.Len(t, results, 2)
	assert.NoError(t, FanOutError("stop", results))
}
