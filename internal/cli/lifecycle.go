package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/havenos/haven/internal/lifecycle"
)

// runLifecycle executes a lifecycle action against one app, or fans it out
// to every installed app when the target is InstalledTarget.
//
// Fan-out reports one line per app and exits non-zero if any app failed; a
// failing app does not stop the others.
func runLifecycle(ctx context.Context, rt *runtime, out io.Writer, action, target string, fn lifecycle.Action) error {
	if target != InstalledTarget {
		if err := fn(ctx, target); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("%s %s", action, target), err)
		}
		return nil
	}

	apps, err := rt.mgr.InstalledApps(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list installed apps", err)
	}
	if len(apps) == 0 {
		fmt.Fprintln(out, "no apps installed")
		return nil
	}

	results := rt.mgr.FanOut(ctx, apps, rt.cfg.FanOutWorkers, fn)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s: error: %v\n", r.App, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", r.App)
	}

	if err := lifecycle.FanOutError(action, results); err != nil {
		return WrapExitError(ExitFailure, "broadcast failed", err)
	}
	return nil
}
