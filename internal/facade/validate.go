package facade

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/calebandcode/diskhygiene/internal/apperr"
)

// sanitizeString strips control characters and truncates to maxLen
// runes, per spec.md §4.9 "Any string input".
func sanitizeString(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if len([]rune(out)) > maxLen {
		runes := []rune(out)
		out = string(runes[:maxLen])
	}
	return out
}

// sanitizeNote applies the note-specific 256-character truncation rule.
func sanitizeNote(s string) string { return sanitizeString(s, 256) }

// validatePath enforces spec.md §4.9's path validation rules: no ".."
// components, must exist if absolute, must not be a filesystem root.
func validatePath(path string) error {
	if path == "" {
		return apperr.New(apperr.Validation, "path must not be empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return apperr.New(apperr.Validation, "path must not contain '..' components")
		}
	}
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return apperr.New(apperr.Validation, "path does not exist: "+path)
		}
	}
	if isFilesystemRoot(path) {
		return apperr.New(apperr.Validation, "path must not be a filesystem root")
	}
	return nil
}

func isFilesystemRoot(path string) bool {
	clean := filepath.Clean(path)
	return clean == filepath.VolumeName(clean)+string(filepath.Separator) || clean == "/"
}

// validateFileIDs enforces spec.md §4.9's file-id list rules: non-empty,
// at most 1000, every id > 0. Duplicates are silently deduplicated (the
// caller's operation is idempotent per id).
func validateFileIDs(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, apperr.New(apperr.Validation, "file id list must not be empty")
	}
	if len(ids) > 1000 {
		return nil, apperr.New(apperr.Validation, "file id list must not exceed 1000 entries")
	}

	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, apperr.New(apperr.Validation, "file ids must be positive")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// validateLimit enforces spec.md §4.9's limit/max_total bounds.
func validateLimit(limit, max int) (int, error) {
	if limit <= 0 {
		return 0, apperr.New(apperr.Validation, "limit must be > 0")
	}
	if limit > max {
		return 0, apperr.New(apperr.Validation, fmt.Sprintf("limit must be <= %d", max))
	}
	return limit, nil
}
