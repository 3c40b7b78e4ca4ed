package registry

import (
	"context"
	"fmt"
)

// App is one row of the installed set.
type App struct {
	ID          string
	Version     string
	InstalledAt string
}

// List returns every installed app ordered by id.
func (s *Store) List(ctx context.Context) ([]App, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, installed_at
		FROM apps
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer rows.Close()

	var apps []App
	for rows.Next() {
		var a App
		if err := rows.Scan(&a.ID, &a.Version, &a.InstalledAt); err != nil {
			return nil, fmt.Errorf("list apps: scan: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	return apps, nil
}

// Contains reports whether an app is in the installed set.
func (s *Store) Contains(ctx context.Context, appID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM apps WHERE id = ?
	`, appID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check app: %w", err)
	}
	return count > 0, nil
}

// Operations returns the audit log for one app, oldest first.
// An empty appID returns the full log.
func (s *Store) Operations(ctx context.Context, appID string) ([]Operation, error) {
	query := `
		SELECT seq, id, app_id, action, status, detail, created_at
		FROM operations
		ORDER BY seq ASC
	`
	args := []any{}
	if appID != "" {
		query = `
			SELECT seq, id, app_id, action, status, detail, created_at
			FROM operations
			WHERE app_id = ?
			ORDER BY seq ASC
		`
		args = append(args, appID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		var op Operation
		if err := rows.Scan(&op.Seq, &op.ID, &op.App, &op.Action, &op.Status, &op.Detail, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("list operations: scan: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return ops, nil
}
