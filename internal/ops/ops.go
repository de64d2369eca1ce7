// Package ops implements the atomic-as-possible archive/delete/restore
// engine from spec.md §4.4, ported from original_source/src-tauri/src/ops/
// {archive,delete,undo,space,error}.rs into a plain-function,
// fmt.Errorf-wrapping idiom. Dispatch over the three action kinds is a
// closed switch, not an interface hierarchy, per spec.md §9 "Dynamic
// dispatch: none required".
package ops

import (
	"fmt"
	"time"

	"github.com/calebandcode/diskhygiene/internal/logging"
	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
)

// FileError records one per-file failure inside a batch outcome; per-file
// errors never abort the rest of the batch (spec.md §7 propagation policy).
type FileError struct {
	FileID  int64
	Path    string
	Message string
}

// Outcome is the result of an archive or delete batch.
type Outcome struct {
	BatchID   string
	Succeeded []int64
	Errors    []FileError
}

// Success reports whether the batch had no per-file errors.
func (o Outcome) Success() bool { return len(o.Errors) == 0 }

// Engine bundles the dependencies every ops operation needs: the index
// store for action logging and file-path updates, the logger for
// human-readable progress, and a SpaceChecker seam for preflight checks.
type Engine struct {
	Store        *store.Store
	Log          *logging.Logger
	SpaceChecker SpaceChecker
}

// NewEngine builds an Engine with the real platform-backed SpaceChecker.
func NewEngine(st *store.Store, log *logging.Logger) *Engine {
	return &Engine{Store: st, Log: log, SpaceChecker: PlatformSpaceChecker{}}
}

// newBatchID mints a time-ordered batch identifier; batch ids are never
// reused, satisfying spec.md's archive idempotence rule.
func newBatchID(kind types.ActionKind) string {
	return fmt.Sprintf("%s_%d", kind, time.Now().UnixMilli())
}
