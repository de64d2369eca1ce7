package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calebandcode/diskhygiene/internal/types"
)

// NewAction is the input to InsertActions; the store stamps every action
// with the insert time.
type NewAction struct {
	FileID  int64
	Kind    types.ActionKind
	BatchID string
	SrcPath string
	DstPath string
	Origin  string
	Note    string
}

// InsertActions appends a batch of actions inside one transaction, the way
// spec.md §4.3 requires all multi-statement mutations to be atomic. All
// actions in one call are expected to share a kind and batch id, per the
// Batch invariant; the store does not itself enforce that, callers (the ops
// engine) do.
func (s *Store) InsertActions(ctx context.Context, actions []NewAction) error {
	if len(actions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert actions tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO actions (file_id, kind, batch_id, src_path, dst_path, origin, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert action: %w", err)
	}
	defer stmt.Close()

	for _, a := range actions {
		if _, err := stmt.ExecContext(ctx, a.FileID, string(a.Kind), a.BatchID, a.SrcPath, a.DstPath, a.Origin, a.Note, now); err != nil {
			return fmt.Errorf("insert action for file %d: %w", a.FileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert actions: %w", err)
	}
	return nil
}

// ActionsForBatch returns every action recorded under batchID, oldest
// first.
func (s *Store) ActionsForBatch(ctx context.Context, batchID string) ([]types.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, kind, batch_id, src_path, dst_path, origin, note, created_at
		FROM actions WHERE batch_id = ? ORDER BY id ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query actions for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	var out []types.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAction(rows *sql.Rows) (types.Action, error) {
	var a types.Action
	var kind, createdAt string
	if err := rows.Scan(&a.ID, &a.FileID, &kind, &a.BatchID, &a.SrcPath, &a.DstPath, &a.Origin, &a.Note, &createdAt); err != nil {
		return types.Action{}, fmt.Errorf("scan action row: %w", err)
	}
	a.Kind = types.ActionKind(kind)
	t, err := parseTime(createdAt)
	if err != nil {
		return types.Action{}, err
	}
	a.CreatedAt = t
	return a, nil
}

// UndoableBatches enumerates distinct batch ids where every member action
// is archive or delete and no later restore action references the same
// file ids, newest first — per spec.md §4.4 "Batch introspection".
func (s *Store) UndoableBatches(ctx context.Context) ([]types.Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, kind, COUNT(*) AS file_count, MIN(created_at) AS created_at
		FROM actions
		WHERE kind IN ('archive','delete')
		  AND NOT EXISTS (
			SELECT 1 FROM actions r
			WHERE r.kind = 'restore'
			  AND r.file_id = actions.file_id
			  AND r.created_at > actions.created_at
		  )
		GROUP BY batch_id
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query undoable batches: %w", err)
	}
	defer rows.Close()

	var out []types.Batch
	for rows.Next() {
		var b types.Batch
		var kind, createdAt string
		if err := rows.Scan(&b.ID, &kind, &b.FileCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		b.Kind = types.ActionKind(kind)
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		b.CreatedAt = t
		b.Undoable = true
		out = append(out, b)
	}
	return out, rows.Err()
}

// LatestUndoableBatchID returns the most recently created undoable batch,
// or "" if none exists.
func (s *Store) LatestUndoableBatchID(ctx context.Context) (string, error) {
	batches, err := s.UndoableBatches(ctx)
	if err != nil {
		return "", err
	}
	if len(batches) == 0 {
		return "", nil
	}
	return batches[0].ID, nil
}
