package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
)

// legacyState mirrors the JSON state file of older installations.
type legacyState struct {
	InstalledApps []string `json:"installedApps"`
}

// ImportLegacy merges the installed set from a pre-registry JSON state
// file and renames the file to "<path>.imported" so the import runs once.
//
// Union semantics: apps already present in the registry are kept as-is.
// A missing file is not an error (nothing to import).
func (s *Store) ImportLegacy(ctx context.Context, path string) (imported int, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("import legacy state: %w", err)
	}

	var state legacyState
	if err := json.Unmarshal(data, &state); err != nil {
		return 0, fmt.Errorf("import legacy state: parse: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import legacy state: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, appID := range state.InstalledApps {
		if appID == "" {
			continue
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO apps (id)
			VALUES (?)
			ON CONFLICT(id) DO NOTHING
		`, appID)
		if err != nil {
			return 0, fmt.Errorf("import legacy state: insert %q: %w", appID, err)
		}
		if n := mustRowsAffected(result); n > 0 {
			imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import legacy state: commit: %w", err)
	}

	// Rename after commit: a crash between commit and rename re-runs the
	// import, which is idempotent.
	if err := os.Rename(path, path+".imported"); err != nil {
		return imported, fmt.Errorf("import legacy state: rename: %w", err)
	}

	return imported, nil
}

func mustRowsAffected(result sql.Result) int64 {
	// The sqlite3 driver never fails RowsAffected.
	n, _ := result.RowsAffected()
	return n
}
