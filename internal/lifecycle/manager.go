// Package lifecycle implements the app lifecycle operations: install,
// uninstall, start, stop, and orchestrator pass-through.
//
// Each operation validates the app, resolves its environment, delegates
// container work to the orchestrator, and records an audit entry in the
// registry. There is no rollback: a failure mid-sequence records a failed
// operation and leaves the system in a manually recoverable state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/havenos/haven/internal/compose"
	"github.com/havenos/haven/internal/config"
	"github.com/havenos/haven/internal/manifest"
	"github.com/havenos/haven/internal/registry"
	"github.com/havenos/haven/internal/secrets"
)

// Orchestrator abstracts the compose runner for testing.
type Orchestrator interface {
	Compose(ctx context.Context, m *manifest.Manifest, env map[string]string, args ...string) error
	Up(ctx context.Context, m *manifest.Manifest, env map[string]string) error
	Down(ctx context.Context, m *manifest.Manifest, env map[string]string) error
}

// Manager wires configuration, registry, secret derivation, and the
// orchestrator into the lifecycle operations.
type Manager struct {
	cfg     *config.Config
	reg     *registry.Store
	deriver *secrets.Deriver
	orch    Orchestrator
	opGen   OperationIDGenerator
	log     *slog.Logger
}

// New creates a Manager. A nil opGen defaults to UUIDv7Generator.
func New(cfg *config.Config, reg *registry.Store, deriver *secrets.Deriver, orch Orchestrator, opGen OperationIDGenerator) *Manager {
	if opGen == nil {
		opGen = UUIDv7Generator{}
	}
	return &Manager{
		cfg:     cfg,
		reg:     reg,
		deriver: deriver,
		orch:    orch,
		opGen:   opGen,
		log:     slog.Default(),
	}
}

// LoadApp validates the app name and loads its manifest.
// Returns ErrUnknownApp when no definition directory exists.
func (m *Manager) LoadApp(app string) (*manifest.Manifest, error) {
	app = manifest.NormalizeID(app)
	if !manifest.ValidID(app) {
		return nil, fmt.Errorf("%w: invalid name %q", ErrUnknownApp, app)
	}

	dir := m.cfg.AppDir(app)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApp, app)
	}
	if err != nil {
		return nil, fmt.Errorf("access app directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApp, app)
	}

	mf, err := manifest.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("app %s: %w", app, err)
	}
	if mf.ID != app {
		return nil, fmt.Errorf("app %s: manifest id is %q", app, mf.ID)
	}
	return mf, nil
}

// InstalledApps returns the ids of every installed app.
func (m *Manager) InstalledApps(ctx context.Context) ([]string, error) {
	apps, err := m.reg.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// Install provisions an app: copy its template into the data directory,
// add it to the installed set, and start its containers.
//
// Install is idempotent: an existing data directory is kept as-is, and
// inserting an already-installed app is a no-op.
func (m *Manager) Install(ctx context.Context, app string) error {
	mf, err := m.LoadApp(app)
	if err != nil {
		return err
	}

	env, err := compose.ResolveEnv(m.cfg, m.deriver, mf)
	if err != nil {
		return err
	}

	if err := m.copyTemplate(mf.ID); err != nil {
		m.record(ctx, mf.ID, "install", registry.StatusFailed, err.Error())
		return err
	}

	op := m.operation(mf.ID, "install", registry.StatusOK, "")
	inserted, err := m.reg.Add(ctx, mf.ID, mf.Version, op)
	if err != nil {
		return err
	}
	if !inserted {
		m.log.Info("app already installed", "app", mf.ID)
	}

	if err := m.orch.Up(ctx, mf, env); err != nil {
		m.record(ctx, mf.ID, "start", registry.StatusFailed, err.Error())
		return fmt.Errorf("install %s: %w", mf.ID, err)
	}

	m.log.Info("app installed", "app", mf.ID, "version", mf.Version)
	return nil
}

// Uninstall stops an app's containers, deletes its data directory, and
// removes it from the installed set.
func (m *Manager) Uninstall(ctx context.Context, app string) error {
	mf, err := m.LoadApp(app)
	if err != nil {
		return err
	}

	env, err := compose.ResolveEnv(m.cfg, m.deriver, mf)
	if err != nil {
		return err
	}

	if err := m.orch.Down(ctx, mf, env); err != nil {
		m.record(ctx, mf.ID, "uninstall", registry.StatusFailed, err.Error())
		return fmt.Errorf("uninstall %s: %w", mf.ID, err)
	}

	if err := os.RemoveAll(m.cfg.DataDir(mf.ID)); err != nil {
		m.record(ctx, mf.ID, "uninstall", registry.StatusFailed, err.Error())
		return fmt.Errorf("uninstall %s: remove data: %w", mf.ID, err)
	}

	op := m.operation(mf.ID, "uninstall", registry.StatusOK, "")
	if _, err := m.reg.Remove(ctx, mf.ID, op); err != nil {
		return err
	}

	m.log.Info("app uninstalled", "app", mf.ID)
	return nil
}

// Start brings up an installed app's containers.
// Refuses with ErrNotInstalled, without invoking the orchestrator, when
// the app is not in the installed set.
func (m *Manager) Start(ctx context.Context, app string) error {
	mf, err := m.LoadApp(app)
	if err != nil {
		return err
	}

	installed, err := m.reg.Contains(ctx, mf.ID)
	if err != nil {
		return err
	}
	if !installed {
		return fmt.Errorf("%w: %s", ErrNotInstalled, mf.ID)
	}

	env, err := compose.ResolveEnv(m.cfg, m.deriver, mf)
	if err != nil {
		return err
	}

	if err := m.orch.Up(ctx, mf, env); err != nil {
		m.record(ctx, mf.ID, "start", registry.StatusFailed, err.Error())
		return fmt.Errorf("start %s: %w", mf.ID, err)
	}

	m.record(ctx, mf.ID, "start", registry.StatusOK, "")
	return nil
}

// Stop takes down an app's containers, keeping its data.
func (m *Manager) Stop(ctx context.Context, app string) error {
	mf, err := m.LoadApp(app)
	if err != nil {
		return err
	}

	env, err := compose.ResolveEnv(m.cfg, m.deriver, mf)
	if err != nil {
		return err
	}

	if err := m.orch.Down(ctx, mf, env); err != nil {
		m.record(ctx, mf.ID, "stop", registry.StatusFailed, err.Error())
		return fmt.Errorf("stop %s: %w", mf.ID, err)
	}

	m.record(ctx, mf.ID, "stop", registry.StatusOK, "")
	return nil
}

// Restart stops and starts an app.
func (m *Manager) Restart(ctx context.Context, app string) error {
	if err := m.Stop(ctx, app); err != nil {
		return err
	}
	return m.Start(ctx, app)
}

// Compose passes arbitrary orchestrator args through for an app.
func (m *Manager) Compose(ctx context.Context, app string, args ...string) error {
	mf, err := m.LoadApp(app)
	if err != nil {
		return err
	}

	env, err := compose.ResolveEnv(m.cfg, m.deriver, mf)
	if err != nil {
		return err
	}

	return m.orch.Compose(ctx, mf, env, args...)
}

// copyTemplate copies the app definition directory into the app's data
// directory. An existing data directory is treated as already provisioned.
func (m *Manager) copyTemplate(app string) error {
	dataDir := m.cfg.DataDir(app)
	if _, err := os.Stat(dataDir); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("access data directory: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := copyFS(dataDir, os.DirFS(m.cfg.AppDir(app))); err != nil {
		return fmt.Errorf("copy app template: %w", err)
	}
	return nil
}

// copyFS mirrors the semantics of os.CopyFS for toolchains predating
// Go 1.23, where it is unavailable.
func copyFS(dir string, fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o777)
		}
		if !d.Type().IsRegular() {
			return &os.PathError{Op: "CopyFS", Path: path, Err: os.ErrInvalid}
		}
		r, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer r.Close()
		info, err := r.Stat()
		if err != nil {
			return err
		}
		w, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o666|info.Mode()&0o777)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, r); err != nil {
			w.Close()
			return &os.PathError{Op: "Copy", Path: target, Err: err}
		}
		return w.Close()
	})
}

// operation builds an audit log entry.
func (m *Manager) operation(app, action, status, detail string) registry.Operation {
	return registry.Operation{
		ID:     m.opGen.Generate(),
		App:    app,
		Action: action,
		Status: status,
		Detail: detail,
	}
}

// record appends an audit entry, logging rather than failing when the
// append itself errors: the audit log never masks the primary error.
func (m *Manager) record(ctx context.Context, app, action, status, detail string) {
	if err := m.reg.Append(ctx, m.operation(app, action, status, detail)); err != nil {
		m.log.Error("record operation", "app", app, "action", action, "error", err)
	}
}
