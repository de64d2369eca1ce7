package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calebandcode/diskhygiene/internal/platform"
	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
)

// ArchiveDateFormat names the dated subdirectory under the archive base.
const ArchiveDateFormat = "2006-01-02"

// Archive moves the given files into "<basePath>/<YYYY-MM-DD>/<basename>
// [ (n)]", per spec.md §4.4 "Archive". All files in one call share a batch
// id and are logged as one batch.
func (e *Engine) Archive(ctx context.Context, basePath string, fileIDs []int64) (Outcome, error) {
	datedDir := filepath.Join(basePath, time.Now().Format(ArchiveDateFormat))

	files := make([]types.File, 0, len(fileIDs))
	var totalBytes int64
	for _, id := range fileIDs {
		f, err := e.Store.GetFile(ctx, id)
		if err != nil {
			return Outcome{}, fmt.Errorf("archive preflight: file %d: %w", id, err)
		}
		files = append(files, f)
		totalBytes += f.SizeBytes
	}

	if err := e.archivePreflight(datedDir, totalBytes, files); err != nil {
		return Outcome{}, err
	}

	if err := os.MkdirAll(datedDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("create archive directory %s: %w", datedDir, err)
	}

	batchID := newBatchID(types.ActionArchive)
	outcome := Outcome{BatchID: batchID}
	var actions []store.NewAction

	for _, f := range files {
		dst, err := e.archiveSingleFile(f, datedDir)
		if err != nil {
			outcome.Errors = append(outcome.Errors, FileError{FileID: f.ID, Path: f.Path, Message: err.Error()})
			if e.Log != nil {
				e.Log.Errorf("archive %s: %v", f.Path, err)
			}
			continue
		}

		actions = append(actions, store.NewAction{
			FileID: f.ID, Kind: types.ActionArchive, BatchID: batchID,
			SrcPath: f.Path, DstPath: dst, Origin: "command",
		})
		if err := e.Store.UpdateFilePath(ctx, f.ID, dst, filepath.Dir(dst)); err != nil {
			outcome.Errors = append(outcome.Errors, FileError{FileID: f.ID, Path: f.Path, Message: err.Error()})
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, f.ID)
	}

	if len(actions) > 0 {
		if err := e.Store.InsertActions(ctx, actions); err != nil {
			return outcome, fmt.Errorf("log archive actions: %w", err)
		}
		if e.Store != nil {
			_ = e.Store.InsertMetric(ctx, "ops.bytes_archived", float64(sumSucceeded(files, outcome.Succeeded)), batchID)
		}
	}

	return outcome, nil
}

func sumSucceeded(files []types.File, succeeded []int64) int64 {
	ok := make(map[int64]bool, len(succeeded))
	for _, id := range succeeded {
		ok[id] = true
	}
	var total int64
	for _, f := range files {
		if ok[f.ID] {
			total += f.SizeBytes
		}
	}
	return total
}

// archivePreflight implements spec.md §4.4 Preflight (i)-(iv).
func (e *Engine) archivePreflight(datedDir string, totalBytes int64, files []types.File) error {
	parent := filepath.Dir(datedDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("archive destination parent %s not creatable: %w", parent, err)
	}

	if err := os.MkdirAll(datedDir, 0o755); err != nil {
		return fmt.Errorf("archive destination %s not creatable: %w", datedDir, err)
	}
	if err := preflightWritable(datedDir); err != nil {
		return err
	}

	checker := e.SpaceChecker
	if checker == nil {
		checker = PlatformSpaceChecker{}
	}
	ok, err := checker.HasSpaceFor(datedDir, totalBytes)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("insufficient free space for archive of %d bytes", totalBytes)
	}

	for _, f := range files {
		if _, err := os.Stat(f.Path); err != nil {
			return fmt.Errorf("source file %s no longer exists: %w", f.Path, err)
		}
	}
	return nil
}

// archiveSingleFile resolves a collision-free destination, then attempts a
// same-volume rename first, falling back to copy+fsync+verify+delete on
// cross-volume failure.
func (e *Engine) archiveSingleFile(f types.File, datedDir string) (string, error) {
	unlock := lockDir(datedDir)
	defer unlock()

	dst, err := resolveCollisionFreeName(datedDir, filepath.Base(f.Path))
	if err != nil {
		return "", fmt.Errorf("resolve archive destination for %s: %w", f.Path, err)
	}

	if err := os.Rename(f.Path, dst); err == nil {
		return dst, nil
	}

	if err := copyFileVerified(f.Path, dst); err != nil {
		return "", err
	}
	if err := os.Remove(f.Path); err != nil {
		return "", fmt.Errorf("remove source %s after copy: %w", f.Path, err)
	}
	return dst, nil
}

// copyFileVerified copies src to dst, fsyncs where the platform supports
// it, verifies the byte size matches, per spec.md §4.4 cross-volume
// fallback.
func copyFileVerified(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination %s: %w", dst, err)
	}

	n, err := copyAndCount(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := platform.SyncFile(out); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("sync %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close %s: %w", dst, err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source %s after copy: %w", src, err)
	}
	if srcInfo.Size() != n {
		os.Remove(dst)
		return fmt.Errorf("copy verification failed for %s: wrote %d of %d bytes", dst, n, srcInfo.Size())
	}
	return nil
}
