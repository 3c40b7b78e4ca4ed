// Package compose invokes the external container orchestrator.
//
// The platform owns none of the service startup, networking, or restart
// behavior: it assembles an environment and a file list, then hands off to
// docker compose. Orchestrator failures propagate through the process exit
// code and are never interpreted or retried here.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/havenos/haven/internal/config"
	"github.com/havenos/haven/internal/manifest"
)

// ErrNotFound is returned when no compose binary is on PATH.
var ErrNotFound = errors.New("compose: docker compose not found on PATH")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Runner invokes the compose orchestrator for one platform installation.
type Runner struct {
	bin      string
	baseArgs []string
	cfg      *config.Config

	// Stdout and Stderr default to the process streams; tests redirect them.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner locates the orchestrator binary. Prefers the docker compose
// plugin, falls back to the standalone docker-compose binary.
func NewRunner(cfg *config.Config) (*Runner, error) {
	if path, err := lookPath("docker"); err == nil {
		return &Runner{bin: path, baseArgs: []string{"compose"}, cfg: cfg}, nil
	}
	if path, err := lookPath("docker-compose"); err == nil {
		return &Runner{bin: path, cfg: cfg}, nil
	}
	return nil, ErrNotFound
}

// Compose runs the orchestrator for an app with the resolved environment
// and extra args appended verbatim.
func (r *Runner) Compose(ctx context.Context, m *manifest.Manifest, env map[string]string, args ...string) error {
	cmd := exec.CommandContext(ctx, r.bin, r.composeArgs(m, args...)...)
	cmd.Env = append(os.Environ(), flattenEnv(env)...)
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("compose %s: %w", m.ID, err)
	}
	return nil
}

// Up starts the app's services in the background.
func (r *Runner) Up(ctx context.Context, m *manifest.Manifest, env map[string]string) error {
	return r.Compose(ctx, m, env, "up", "--detach")
}

// Down stops the app's services and removes their containers.
func (r *Runner) Down(ctx context.Context, m *manifest.Manifest, env map[string]string) error {
	return r.Compose(ctx, m, env, "down")
}

// composeArgs assembles the orchestrator argument list: base compose file,
// app compose file, per-app project name, then the requested args.
func (r *Runner) composeArgs(m *manifest.Manifest, args ...string) []string {
	out := append([]string{}, r.baseArgs...)
	out = append(out,
		"--file", r.cfg.BaseComposePath(),
		"--file", filepath.Join(r.cfg.AppDir(m.ID), m.Compose),
		"--project-name", m.ID,
	)
	return append(out, args...)
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

// ExitCode extracts the orchestrator's exit code from a Compose error.
// Returns 1 for errors that did not come from a finished process.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// flattenEnv renders an environment map as sorted KEY=VALUE pairs.
// Sorting keeps orchestrator invocations reproducible.
func flattenEnv(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
