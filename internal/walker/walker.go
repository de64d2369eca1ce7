// Package walker performs filter-aware recursive enumeration of a root
// directory using filepath.WalkDir, yielding metadata records instead of
// driving a backup-then-delete pipeline directly.
package walker

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// skipDirNames are directory names that are never descended into.
var skipDirNames = map[string]bool{
	".git":         true,
	"node_modules": true,
	".DS_Store":    true,
	"Thumbs.db":    true,
}

// skipFileNames are file names that are never yielded.
var skipFileNames = map[string]bool{
	".DS_Store": true,
	"Thumbs.db": true,
}

// mediaTypeByExt is the fixed extension → media-type table from the policy.
var mediaTypeByExt = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".zip":  "application/zip",
	".tar":  "application/x-tar",
	".gz":   "application/gzip",
}

// Record is one file's metadata as observed during a walk.
type Record struct {
	Path      string
	Parent    string
	Size      int64
	Created   *time.Time
	Modified  *time.Time
	Accessed  *time.Time
	MediaType string
}

// Result is the outcome of walking one root: the yielded records, the set
// of seen absolute paths (for reconciliation), and error bookkeeping.
type Result struct {
	Records     []Record
	SeenPaths   map[string]bool
	Skipped     int
	ErrMessages []string
}

// IsSkippedDir reports whether a directory name is always excluded.
func IsSkippedDir(name string) bool { return skipDirNames[name] }

// MediaType returns the media type for a path's extension, or "" if unknown.
func MediaType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return mediaTypeByExt[ext]
}

// Walk recursively enumerates root, applying the fixed exclusion and
// media-type policy. Symbolic links are never followed. Per-entry errors
// increment Skipped and are appended to ErrMessages; the walk continues.
//
// ctx is checked between entries so a caller embedding Walk in a larger job
// (e.g. the scan coordinator's per-job runtime cap) can stop early; Walk
// itself never imposes a time or count limit.
func Walk(ctx context.Context, root string) (Result, error) {
	res := Result{SeenPaths: make(map[string]bool)}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			res.Skipped++
			res.ErrMessages = append(res.ErrMessages, err.Error())
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path != root && skipDirNames[name] {
				return filepath.SkipDir
			}
			return nil
		}

		// Never follow symlinks: a symlink DirEntry is reported as a
		// non-directory by WalkDir; skip it explicitly rather than
		// resolving and reading through it.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if skipFileNames[name] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			res.Skipped++
			res.ErrMessages = append(res.ErrMessages, err.Error())
			return nil
		}

		rec := Record{
			Path:      path,
			Parent:    filepath.Dir(path),
			Size:      info.Size(),
			MediaType: MediaType(path),
		}
		modified := info.ModTime().UTC()
		rec.Modified = &modified
		if at, ok := accessTime(info); ok {
			accessed := at.UTC()
			rec.Accessed = &accessed
		}
		if ct, ok := createTime(info); ok {
			created := ct.UTC()
			rec.Created = &created
		}

		res.Records = append(res.Records, rec)
		res.SeenPaths[path] = true
		return nil
	})

	if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return res, err
	}
	return res, nil
}
