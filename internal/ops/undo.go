package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
)

// UndoResult is the report a restore operation returns, per spec.md §4.4
// "Restore (undo)".
type UndoResult struct {
	BatchID           string
	ActionsReversed   int
	FilesRestored     int
	RollbackPerformed bool
	Errors            []FileError
}

// movedEntry tracks one already-reversed action so a later failure in the
// same batch can be rolled back.
type movedEntry struct {
	FileID int64
	Live   string // original live path (action.SrcPath)
	Parked string // archive/trash path it was moved from (action.DstPath)
}

// UndoLatest restores the most recently created undoable batch.
func (e *Engine) UndoLatest(ctx context.Context) (UndoResult, error) {
	batchID, err := e.Store.LatestUndoableBatchID(ctx)
	if err != nil {
		return UndoResult{}, fmt.Errorf("find latest undoable batch: %w", err)
	}
	if batchID == "" {
		return UndoResult{}, fmt.Errorf("no undoable batch exists")
	}
	return e.UndoBatch(ctx, batchID)
}

// UndoBatch restores every archive/delete action in batchID. On first
// per-entry failure it rolls back every entry already reversed in this call
// and reports RollbackPerformed=true; no restore actions are logged when
// rollback occurs, per spec.md "Never log a restore action if rollback
// occurred."
func (e *Engine) UndoBatch(ctx context.Context, batchID string) (UndoResult, error) {
	actions, err := e.Store.ActionsForBatch(ctx, batchID)
	if err != nil {
		return UndoResult{}, fmt.Errorf("load batch %s: %w", batchID, err)
	}

	var supported []types.Action
	for _, a := range actions {
		if a.Kind == types.ActionArchive || a.Kind == types.ActionDelete {
			supported = append(supported, a)
		}
	}
	if len(supported) == 0 {
		return UndoResult{}, fmt.Errorf("batch %s has no archive or delete actions to undo", batchID)
	}

	result := UndoResult{BatchID: batchID}
	var moved []movedEntry

	for _, a := range supported {
		if err := restoreOne(a.DstPath, a.SrcPath); err != nil {
			result.Errors = append(result.Errors, FileError{FileID: a.FileID, Path: a.SrcPath, Message: err.Error()})
			result.RollbackPerformed = true
			e.rollback(moved)
			return result, nil
		}
		moved = append(moved, movedEntry{FileID: a.FileID, Live: a.SrcPath, Parked: a.DstPath})
	}

	restoreBatchID := newBatchID(types.ActionRestore)

	var newActions []store.NewAction
	for _, m := range moved {
		if err := e.Store.UpdateFilePath(ctx, m.FileID, m.Live, filepath.Dir(m.Live)); err != nil {
			result.Errors = append(result.Errors, FileError{FileID: m.FileID, Path: m.Live, Message: err.Error()})
			continue
		}
		if err := e.Store.MarkStagedStatus(ctx, m.FileID, types.StagedRestored); err != nil {
			result.Errors = append(result.Errors, FileError{FileID: m.FileID, Path: m.Live, Message: err.Error()})
		}
		newActions = append(newActions, store.NewAction{
			FileID: m.FileID, Kind: types.ActionRestore, BatchID: restoreBatchID,
			SrcPath: m.Parked, DstPath: m.Live, Origin: "command",
		})
		result.ActionsReversed++
		result.FilesRestored++
	}

	if len(newActions) > 0 {
		if err := e.Store.InsertActions(ctx, newActions); err != nil {
			return result, fmt.Errorf("log restore actions: %w", err)
		}
	}

	return result, nil
}

// restoreOne moves one archived/trashed file back to its original live
// path, per spec.md's per-entry restore rules.
func restoreOne(parked, live string) error {
	if _, err := os.Stat(parked); err != nil {
		return fmt.Errorf("archived/trashed file %s no longer exists: %w", parked, err)
	}
	if _, err := os.Stat(live); err == nil {
		return fmt.Errorf("destination %s already exists", live)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat destination %s: %w", live, err)
	}

	if err := os.MkdirAll(filepath.Dir(live), 0o755); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", live, err)
	}
	if err := os.Rename(parked, live); err != nil {
		return fmt.Errorf("move %s to %s: %w", parked, live, err)
	}
	return nil
}

// rollback reverses every already-moved entry (live -> parked) so the batch
// ends exactly where it started, per spec.md's rollback atomicity property.
func (e *Engine) rollback(moved []movedEntry) {
	for _, m := range moved {
		if err := os.Rename(m.Live, m.Parked); err != nil && e.Log != nil {
			e.Log.Errorf("rollback failed for file %d (%s -> %s): %v", m.FileID, m.Live, m.Parked, err)
		}
	}
}
