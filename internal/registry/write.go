package registry

import (
	"context"
	"database/sql"
	"fmt"
)

// Operation statuses recorded in the log.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Operation is one entry in the lifecycle audit log.
type Operation struct {
	Seq       int64
	ID        string // UUIDv7
	App       string
	Action    string // install, uninstall, start, stop, ...
	Status    string
	Detail    string
	CreatedAt string
}

// Add inserts an app into the installed set and appends the operation
// record in the same transaction.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - installing an app that
// is already installed is not an error and returns inserted=false. The
// operation is logged either way.
func (s *Store) Add(ctx context.Context, appID, version string, op Operation) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("add app: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO apps (id, version)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, appID, version)
	if err != nil {
		return false, fmt.Errorf("add app: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add app: rows affected: %w", err)
	}
	inserted = rowsAffected > 0

	if err := appendOperation(ctx, tx, op); err != nil {
		return false, fmt.Errorf("add app: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("add app: commit: %w", err)
	}

	return inserted, nil
}

// Remove deletes an app from the installed set and appends the operation
// record in the same transaction.
//
// Removing an app that is not installed is not an error and returns
// removed=false.
func (s *Store) Remove(ctx context.Context, appID string, op Operation) (removed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("remove app: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM apps WHERE id = ?`, appID)
	if err != nil {
		return false, fmt.Errorf("remove app: delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove app: rows affected: %w", err)
	}
	removed = rowsAffected > 0

	if err := appendOperation(ctx, tx, op); err != nil {
		return false, fmt.Errorf("remove app: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("remove app: commit: %w", err)
	}

	return removed, nil
}

// Append records an operation that does not mutate the installed set
// (start, stop, compose pass-through).
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate operation
// IDs are silently ignored.
func (s *Store) Append(ctx context.Context, op Operation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append operation: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := appendOperation(ctx, tx, op); err != nil {
		return fmt.Errorf("append operation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append operation: commit: %w", err)
	}
	return nil
}

func appendOperation(ctx context.Context, tx *sql.Tx, op Operation) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO operations (id, app_id, action, status, detail)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		op.ID,
		op.App,
		op.Action,
		op.Status,
		op.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}
