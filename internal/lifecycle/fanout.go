package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one app within a fan-out.
type Result struct {
	App string
	Err error
}

// Action is a lifecycle operation applied to one app.
type Action func(ctx context.Context, app string) error

// FanOut applies action to every app through a bounded worker pool and
// collects one Result per app. A failing app does not stop the others;
// results are returned sorted by app id.
//
// limit <= 0 falls back to a single worker.
func (m *Manager) FanOut(ctx context.Context, apps []string, limit int, action Action) []Result {
	if limit <= 0 {
		limit = 1
	}

	var mu sync.Mutex
	results := make([]Result, 0, len(apps))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for _, app := range apps {
		app := app
		eg.Go(func() error {
			err := action(egCtx, app)
			mu.Lock()
			results = append(results, Result{App: app, Err: err})
			mu.Unlock()
			// Always nil: one failing app must not cancel the rest.
			return nil
		})
	}

	// Err is always nil; Wait is only the join point.
	_ = eg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].App < results[j].App })
	return results
}

// FailedApps returns the ids of apps whose result carries an error.
func FailedApps(results []Result) []string {
	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.App)
		}
	}
	return failed
}

// FanOutError summarizes failed results into a single error, or nil when
// every app succeeded.
func FanOutError(action string, results []Result) error {
	failed := FailedApps(results)
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%s failed for %d app(s): %s", action, len(failed), strings.Join(failed, ", "))
}
