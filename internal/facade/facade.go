// Package facade is the validated request entry point from spec.md §4.9 and
// §6, bridging the command surface to the scan coordinator, ops engine,
// selector and gauge. Every handler validates its input; all but the scan
// handlers then run their work on a bounded Pool and wait for its result.
// Handlers return *apperr.Error on failure so the CLI can render ERR_<KIND>
// uniformly.
package facade

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/calebandcode/diskhygiene/internal/apperr"
	"github.com/calebandcode/diskhygiene/internal/gauge"
	"github.com/calebandcode/diskhygiene/internal/logging"
	"github.com/calebandcode/diskhygiene/internal/ops"
	"github.com/calebandcode/diskhygiene/internal/scan"
	"github.com/calebandcode/diskhygiene/internal/selector"
	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
)

// removePath permanently deletes the file at path, used by EmptyStaged to
// dispose of a staged file's parked copy.
func removePath(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Facade bundles every dependency the command surface needs.
type Facade struct {
	Store    *store.Store
	Coord    *scan.Coordinator
	Ops      *ops.Engine
	Detector *selector.ActiveProjectDetector
	Log      *logging.Logger
	Pool     *Pool

	ArchiveBasePath string
}

// New builds a Facade with a worker pool of the given size.
func New(st *store.Store, coord *scan.Coordinator, opsEngine *ops.Engine, log *logging.Logger, poolSize int, archiveBasePath string) *Facade {
	return &Facade{
		Store: st, Coord: coord, Ops: opsEngine,
		Detector: selector.NewActiveProjectDetector(),
		Log:      log, Pool: NewPool(poolSize), ArchiveBasePath: archiveBasePath,
	}
}

func wrap(kind apperr.Kind, err error) *apperr.Error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*apperr.Error); ok {
		return ae
	}
	return apperr.Wrap(kind, "operation failed", err)
}

// AddFolder registers a new watched root.
func (f *Facade) AddFolder(ctx context.Context, path string) (types.WatchedRoot, *apperr.Error) {
	if err := validatePath(path); err != nil {
		return types.WatchedRoot{}, err.(*apperr.Error)
	}
	root, err := Submit(f.Pool, func() (types.WatchedRoot, error) {
		return f.Store.AddWatchedRoot(ctx, path)
	})
	if err != nil {
		return types.WatchedRoot{}, wrap(apperr.Database, err)
	}
	return root, nil
}

// ListFolders returns every watched root.
func (f *Facade) ListFolders(ctx context.Context) ([]types.WatchedRoot, *apperr.Error) {
	roots, err := Submit(f.Pool, func() ([]types.WatchedRoot, error) {
		return f.Store.ListWatchedRoots(ctx)
	})
	if err != nil {
		return nil, wrap(apperr.Database, err)
	}
	return roots, nil
}

// RemoveFolder deletes a watched root by id.
func (f *Facade) RemoveFolder(ctx context.Context, id int64) *apperr.Error {
	if id <= 0 {
		return apperr.New(apperr.Validation, "id must be positive")
	}
	_, err := Submit(f.Pool, func() (struct{}, error) {
		return struct{}{}, f.Store.RemoveWatchedRoot(ctx, id)
	})
	if err != nil {
		return wrap(apperr.NotFound, err)
	}
	return nil
}

// StartScan enqueues a manual scan job over the given paths (or every
// watched root when paths is empty).
func (f *Facade) StartScan(ctx context.Context, paths []string) *apperr.Error {
	roots := paths
	if len(roots) == 0 {
		watched, err := f.Store.ListWatchedRoots(ctx)
		if err != nil {
			return wrap(apperr.Scan, err)
		}
		for _, w := range watched {
			roots = append(roots, w.Path)
		}
	}
	for _, p := range roots {
		if err := validatePath(p); err != nil {
			return err.(*apperr.Error)
		}
	}
	f.Coord.Enqueue(scan.Job{Roots: roots, Trigger: scan.TriggerManual})
	return nil
}

// RescanAll enqueues a manual scan over every watched root.
func (f *Facade) RescanAll(ctx context.Context) *apperr.Error {
	return f.StartScan(ctx, nil)
}

// RescanFolder enqueues a manual scan over a single path.
func (f *Facade) RescanFolder(ctx context.Context, path string) *apperr.Error {
	if err := validatePath(path); err != nil {
		return err.(*apperr.Error)
	}
	f.Coord.Enqueue(scan.Job{Roots: []string{path}, Trigger: scan.TriggerManual})
	return nil
}

// ScanStatus returns the process-wide scan status snapshot.
func (f *Facade) ScanStatus() scan.Status {
	return f.Coord.Status()
}

// GetCandidates returns the top maxTotal ranked disposal candidates.
func (f *Facade) GetCandidates(ctx context.Context, maxTotal int) ([]selector.Candidate, *apperr.Error) {
	limit, verr := validateLimit(maxTotal, 1000)
	if verr != nil {
		return nil, verr.(*apperr.Error)
	}
	cands, err := Submit(f.Pool, func() ([]selector.Candidate, error) {
		return selector.Select(ctx, f.Store, f.Detector, limit)
	})
	if err != nil {
		return nil, wrap(apperr.Selector, err)
	}
	return cands, nil
}

// BucketSummary is the per-bucket count/total returned by GetCandidatesBucketed.
type BucketSummary struct {
	Count      int
	TotalBytes int64
}

// BucketedResult is the get_candidates_bucketed response shape.
type BucketedResult struct {
	ByBucket  map[selector.Bucket][]selector.Candidate
	Summaries map[selector.Bucket]BucketSummary
	Total     int
}

// GetCandidatesBucketed returns candidates grouped by bucket, restricted to
// the given bucket filter when non-empty. Per spec.md §9 Open Question 3,
// an empty index returns an empty result, not a special-cased quick pass.
func (f *Facade) GetCandidatesBucketed(ctx context.Context, buckets []selector.Bucket, limit int) (BucketedResult, *apperr.Error) {
	lim, verr := validateLimit(limit, 1000)
	if verr != nil {
		return BucketedResult{}, verr.(*apperr.Error)
	}

	all, err := Submit(f.Pool, func() ([]selector.Candidate, error) {
		return selector.Select(ctx, f.Store, f.Detector, lim)
	})
	if err != nil {
		return BucketedResult{}, wrap(apperr.Selector, err)
	}

	wanted := make(map[selector.Bucket]bool, len(buckets))
	for _, b := range buckets {
		wanted[b] = true
	}

	res := BucketedResult{ByBucket: make(map[selector.Bucket][]selector.Candidate), Summaries: make(map[selector.Bucket]BucketSummary)}
	for _, c := range all {
		if len(wanted) > 0 && !wanted[c.Bucket] {
			continue
		}
		res.ByBucket[c.Bucket] = append(res.ByBucket[c.Bucket], c)
		sum := res.Summaries[c.Bucket]
		sum.Count++
		sum.TotalBytes += c.SizeBytes
		res.Summaries[c.Bucket] = sum
		res.Total++
	}
	return res, nil
}

// GetDuplicateGroups returns up to limit duplicate groups (cap 200 per
// spec.md §4.9).
func (f *Facade) GetDuplicateGroups(ctx context.Context, limit int) ([]store.DuplicateGroup, *apperr.Error) {
	lim, verr := validateLimit(limit, 200)
	if verr != nil {
		return nil, verr.(*apperr.Error)
	}
	groups, err := Submit(f.Pool, func() ([]store.DuplicateGroup, error) {
		return f.Store.DuplicateGroups(ctx, lim)
	})
	if err != nil {
		return nil, wrap(apperr.Database, err)
	}
	return groups, nil
}

// ArchiveFiles archives the given file ids in one batch.
func (f *Facade) ArchiveFiles(ctx context.Context, ids []int64) (ops.Outcome, *apperr.Error) {
	validIDs, verr := validateFileIDs(ids)
	if verr != nil {
		return ops.Outcome{}, verr.(*apperr.Error)
	}
	out, err := Submit(f.Pool, func() (ops.Outcome, error) {
		return f.Ops.Archive(ctx, f.ArchiveBasePath, validIDs)
	})
	if err != nil {
		return ops.Outcome{}, wrap(apperr.Archive, err)
	}
	return out, nil
}

// DeleteFiles deletes the given file ids in one batch, to trash by default.
func (f *Facade) DeleteFiles(ctx context.Context, ids []int64, toTrash bool) (ops.Outcome, *apperr.Error) {
	validIDs, verr := validateFileIDs(ids)
	if verr != nil {
		return ops.Outcome{}, verr.(*apperr.Error)
	}
	out, err := Submit(f.Pool, func() (ops.Outcome, error) {
		return f.Ops.Delete(ctx, validIDs, toTrash)
	})
	if err != nil {
		return ops.Outcome{}, wrap(apperr.Delete, err)
	}
	return out, nil
}

// StageFiles marks the given files as staged (archived-but-undoable),
// recording a staged record per file with the current time as staged_at.
func (f *Facade) StageFiles(ctx context.Context, ids []int64, expiresAt *time.Time, note string) *apperr.Error {
	validIDs, verr := validateFileIDs(ids)
	if verr != nil {
		return verr.(*apperr.Error)
	}
	note = sanitizeNote(note)

	_, err := Submit(f.Pool, func() (struct{}, error) {
		now := time.Now()
		for _, id := range validIDs {
			rec := types.StagedRecord{FileID: id, StagedAt: now, ExpiresAt: expiresAt, Status: types.StagedActive, Note: note}
			if err := f.Store.UpsertStaged(ctx, rec); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return wrap(apperr.Database, err)
	}
	return nil
}

// RestoreStaged restores a single staged file by marking it restored; the
// actual filesystem restore for archived/deleted content goes through
// UndoBatch, since staged records always correspond to an archive batch.
func (f *Facade) RestoreStaged(ctx context.Context, fileID int64) *apperr.Error {
	if fileID <= 0 {
		return apperr.New(apperr.Validation, "file id must be positive")
	}
	_, err := Submit(f.Pool, func() (struct{}, error) {
		return struct{}{}, f.Store.MarkStagedStatus(ctx, fileID, types.StagedRestored)
	})
	if err != nil {
		return wrap(apperr.Undo, err)
	}
	return nil
}

// UndoLast restores the most recently created undoable batch.
func (f *Facade) UndoLast(ctx context.Context) (ops.UndoResult, *apperr.Error) {
	res, err := Submit(f.Pool, func() (ops.UndoResult, error) {
		return f.Ops.UndoLatest(ctx)
	})
	if err != nil {
		return ops.UndoResult{}, wrap(apperr.Undo, err)
	}
	return res, nil
}

// UndoBatch restores a specific batch by id.
func (f *Facade) UndoBatch(ctx context.Context, batchID string) (ops.UndoResult, *apperr.Error) {
	if batchID == "" {
		return ops.UndoResult{}, apperr.New(apperr.Validation, "batch id must not be empty")
	}
	res, err := Submit(f.Pool, func() (ops.UndoResult, error) {
		return f.Ops.UndoBatch(ctx, batchID)
	})
	if err != nil {
		return ops.UndoResult{}, wrap(apperr.Undo, err)
	}
	return res, nil
}

// EmptyStaged permanently disposes of staged files (marks them emptied and
// deletes their parked copy), per the Staged/Gone terminal transition. This
// always removes the parked copy outright — the file is already sitting in
// the archive or trash, so there is no further trash tier to route it to.
func (f *Facade) EmptyStaged(ctx context.Context, ids []int64) (ops.Outcome, *apperr.Error) {
	validIDs, verr := validateFileIDs(ids)
	if verr != nil {
		return ops.Outcome{}, verr.(*apperr.Error)
	}

	out, err := Submit(f.Pool, func() (ops.Outcome, error) {
		result := ops.Outcome{BatchID: fmt.Sprintf("empty_%d", time.Now().UnixMilli())}
		for _, id := range validIDs {
			file, err := f.Store.GetFile(ctx, id)
			if err != nil {
				result.Errors = append(result.Errors, ops.FileError{FileID: id, Message: err.Error()})
				continue
			}
			if err := removePath(file.Path); err != nil {
				result.Errors = append(result.Errors, ops.FileError{FileID: id, Path: file.Path, Message: err.Error()})
				continue
			}
			if err := f.Store.MarkStagedStatus(ctx, id, types.StagedEmptied); err != nil {
				result.Errors = append(result.Errors, ops.FileError{FileID: id, Path: file.Path, Message: err.Error()})
				continue
			}
			result.Succeeded = append(result.Succeeded, id)
		}
		return result, nil
	})
	if err != nil {
		return ops.Outcome{}, wrap(apperr.Delete, err)
	}
	return out, nil
}

// ListStaged returns staged records, optionally filtered by status.
func (f *Facade) ListStaged(ctx context.Context, statuses []types.StagedStatus) ([]types.StagedRecord, *apperr.Error) {
	recs, err := Submit(f.Pool, func() ([]types.StagedRecord, error) {
		return f.Store.ListStaged(ctx, statuses)
	})
	if err != nil {
		return nil, wrap(apperr.Database, err)
	}
	return recs, nil
}

// ListUndoableBatches enumerates undoable batches, newest first.
func (f *Facade) ListUndoableBatches(ctx context.Context) ([]types.Batch, *apperr.Error) {
	batches, err := Submit(f.Pool, func() ([]types.Batch, error) {
		return f.Store.UndoableBatches(ctx)
	})
	if err != nil {
		return nil, wrap(apperr.Database, err)
	}
	return batches, nil
}

// GaugeState computes the gauge triple using the rolling_window_days
// preference (default 7) as the window size.
func (f *Facade) GaugeState(ctx context.Context) (gauge.Triple, *apperr.Error) {
	triple, err := Submit(f.Pool, func() (gauge.Triple, error) {
		days := gauge.DefaultRollingDays
		if v, ok, err := f.Store.GetPreference(ctx, "rolling_window_days"); err == nil && ok {
			fmt.Sscanf(v, "%d", &days)
		}
		return gauge.Compute(ctx, f.Store, f.Detector, gauge.WindowRolling, days, time.Friday, 17)
	})
	if err != nil {
		return gauge.Triple{}, wrap(apperr.Gauge, err)
	}
	return triple, nil
}

// GetPrefs returns every stored preference.
func (f *Facade) GetPrefs(ctx context.Context) (map[string]string, *apperr.Error) {
	prefs, err := Submit(f.Pool, func() (map[string]string, error) {
		return f.Store.AllPreferences(ctx)
	})
	if err != nil {
		return nil, wrap(apperr.Database, err)
	}
	return prefs, nil
}

// SetPrefs validates and stores a partial set of preference updates, per
// spec.md §4.9's preference-value bounds.
func (f *Facade) SetPrefs(ctx context.Context, updates map[string]string) *apperr.Error {
	for k, v := range updates {
		if verr := validatePrefValue(k, v); verr != nil {
			return verr
		}
	}

	_, err := Submit(f.Pool, func() (struct{}, error) {
		for k, v := range updates {
			if err := f.Store.SetPreference(ctx, k, v); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return wrap(apperr.Database, err)
	}
	return nil
}

func validatePrefValue(key, value string) *apperr.Error {
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return apperr.New(apperr.Validation, "preference "+key+" must be numeric")
	}

	var bounds func(int) bool
	switch key {
	case "tidy_hour":
		bounds = func(v int) bool { return v >= 0 && v <= 23 }
	case "rolling_window_days":
		bounds = func(v int) bool { return v >= 1 && v <= 365 }
	case "scan_interval_hours":
		bounds = func(v int) bool { return v >= 1 && v <= 168 }
	case "thumbnail_max_size":
		bounds = func(v int) bool { return v >= 1 && v <= 2048 }
	default:
		if strings.HasSuffix(key, "_age_days") {
			bounds = func(v int) bool { return v <= 365 }
		} else {
			return nil
		}
	}
	if !bounds(n) {
		return apperr.New(apperr.Validation, "preference "+key+" out of range")
	}
	return nil
}
