package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/havenos/haven/internal/compose"
	"github.com/havenos/haven/internal/config"
	"github.com/havenos/haven/internal/lifecycle"
	"github.com/havenos/haven/internal/registry"
	"github.com/havenos/haven/internal/secrets"
)

// runtime holds the wired components a command needs. Commands build only
// what they use: ls-installed opens just the registry, derive just the
// seed.
type runtime struct {
	cfg *config.Config
	reg *registry.Store
	mgr *lifecycle.Manager
}

// Close releases the registry.
func (r *runtime) Close() {
	if r.reg != nil {
		if err := r.reg.Close(); err != nil {
			slog.Error("error closing registry", "error", err)
		}
	}
}

// configureLogging switches slog to debug when --verbose is set.
func configureLogging(opts *RootOptions) {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// loadConfig resolves configuration, applying the --root override.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	configureLogging(opts)

	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to load configuration", err)
	}
	if opts.Root != "" {
		cfg.Root = opts.Root
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitFailure, "invalid configuration", err)
	}
	return cfg, nil
}

// newRegistryRuntime wires config and registry only.
func newRegistryRuntime(opts *RootOptions) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(cfg.RegistryPath())
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open registry", err)
	}

	return &runtime{cfg: cfg, reg: reg}, nil
}

// newRuntime wires the full lifecycle manager: config, registry (with a
// one-shot legacy state import), seed deriver, and compose runner.
func newRuntime(ctx context.Context, opts *RootOptions) (*runtime, error) {
	rt, err := newRegistryRuntime(opts)
	if err != nil {
		return nil, err
	}

	imported, err := rt.reg.ImportLegacy(ctx, rt.cfg.LegacyStatePath())
	if err != nil {
		rt.Close()
		return nil, WrapExitError(ExitFailure, "failed to import legacy state", err)
	}
	if imported > 0 {
		slog.Info("imported legacy installed set", "apps", imported)
	}

	deriver, err := secrets.LoadFile(rt.cfg.SeedPath(), rt.cfg.FallbackSeedPath())
	if err != nil {
		rt.Close()
		return nil, WrapExitError(ExitFailure, "failed to load master seed", err)
	}

	runner, err := compose.NewRunner(rt.cfg)
	if err != nil {
		rt.Close()
		return nil, WrapExitError(ExitFailure, "missing dependency", err)
	}

	rt.mgr = lifecycle.New(rt.cfg, rt.reg, deriver, runner, nil)
	return rt, nil
}
