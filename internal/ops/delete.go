package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/calebandcode/diskhygiene/internal/platform"
	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
)

// Delete removes the given files, either to the OS trash (default) or
// permanently, per spec.md §4.4 "Delete". No preflight space check is
// performed (deletion only frees space).
func (e *Engine) Delete(ctx context.Context, fileIDs []int64, toTrash bool) (Outcome, error) {
	batchID := newBatchID(types.ActionDelete)
	outcome := Outcome{BatchID: batchID}
	var actions []store.NewAction
	var freedBytes int64

	var trashDir string
	if toTrash {
		dir, err := platform.TrashDir()
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve trash directory: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Outcome{}, fmt.Errorf("trash directory %s unavailable: %w", dir, err)
		}
		trashDir = dir
	}

	for _, id := range fileIDs {
		f, err := e.Store.GetFile(ctx, id)
		if err != nil {
			outcome.Errors = append(outcome.Errors, FileError{FileID: id, Message: err.Error()})
			continue
		}

		var dst string
		if toTrash {
			dst, err = e.deleteToTrash(f, trashDir)
		} else {
			err = os.Remove(f.Path)
			dst = f.Path
		}
		if err != nil {
			outcome.Errors = append(outcome.Errors, FileError{FileID: f.ID, Path: f.Path, Message: err.Error()})
			if e.Log != nil {
				e.Log.Errorf("delete %s: %v", f.Path, err)
			}
			continue
		}

		actions = append(actions, store.NewAction{
			FileID: f.ID, Kind: types.ActionDelete, BatchID: batchID,
			SrcPath: f.Path, DstPath: dst, Origin: "command",
		})
		outcome.Succeeded = append(outcome.Succeeded, f.ID)
		freedBytes += f.SizeBytes
	}

	if len(actions) > 0 {
		if err := e.Store.InsertActions(ctx, actions); err != nil {
			return outcome, fmt.Errorf("log delete actions: %w", err)
		}
		_ = e.Store.InsertMetric(ctx, "ops.bytes_deleted", float64(freedBytes), batchID)
	}

	return outcome, nil
}

// deleteToTrash moves a file into the OS trash directory with the same
// collision-naming rule archive uses.
func (e *Engine) deleteToTrash(f types.File, trashDir string) (string, error) {
	unlock := lockDir(trashDir)
	defer unlock()

	dst, err := resolveCollisionFreeName(trashDir, filepath.Base(f.Path))
	if err != nil {
		return "", fmt.Errorf("resolve trash destination for %s: %w", f.Path, err)
	}

	if err := os.Rename(f.Path, dst); err == nil {
		return dst, nil
	}

	if err := copyFileVerified(f.Path, dst); err != nil {
		return "", err
	}
	if err := os.Remove(f.Path); err != nil {
		return "", fmt.Errorf("remove source %s after trash copy: %w", f.Path, err)
	}
	return dst, nil
}
