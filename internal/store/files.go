package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/calebandcode/diskhygiene/internal/types"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) { return time.Parse(timeLayout, s) }

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertFile implements the upsert-by-path contract from spec.md §4.3: on
// conflict, refresh parent/media/size/mtime/atime/head-sample, overwrite
// the full digest only when non-empty, advance last_seen, clear tombstone.
// On insert, first_seen = last_seen = now, tombstone = false, staged =
// false.
func (s *Store) UpsertFile(ctx context.Context, rec UpsertFileInput) (int64, error) {
	now := formatTime(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM files WHERE path = ?`, rec.Path).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := tx.ExecContext(ctx, `
			INSERT INTO files (path, parent_dir, media_type, size_bytes, created_at,
				modified_at, accessed_at, head_sample, full_digest,
				first_seen_at, last_seen_at, tombstone, staged)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0)`,
			rec.Path, rec.ParentDir, nullIfEmpty(rec.MediaType), rec.SizeBytes,
			formatTimePtr(rec.Created), formatTimePtr(rec.Modified), formatTimePtr(rec.Accessed),
			nullIfEmpty(rec.HeadSample), nullIfEmpty(rec.FullDigest), now, now)
		if err != nil {
			return 0, fmt.Errorf("insert file %s: %w", rec.Path, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("read inserted file id: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("lookup file %s: %w", rec.Path, err)
	default:
		if rec.FullDigest != "" {
			_, err = tx.ExecContext(ctx, `
				UPDATE files SET parent_dir=?, media_type=?, size_bytes=?, created_at=?,
					modified_at=?, accessed_at=?, head_sample=?, full_digest=?,
					last_seen_at=?, tombstone=0
				WHERE id=?`,
				rec.ParentDir, nullIfEmpty(rec.MediaType), rec.SizeBytes, formatTimePtr(rec.Created),
				formatTimePtr(rec.Modified), formatTimePtr(rec.Accessed), nullIfEmpty(rec.HeadSample),
				rec.FullDigest, now, id)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE files SET parent_dir=?, media_type=?, size_bytes=?, created_at=?,
					modified_at=?, accessed_at=?, head_sample=?,
					last_seen_at=?, tombstone=0
				WHERE id=?`,
				rec.ParentDir, nullIfEmpty(rec.MediaType), rec.SizeBytes, formatTimePtr(rec.Created),
				formatTimePtr(rec.Modified), formatTimePtr(rec.Accessed), nullIfEmpty(rec.HeadSample),
				now, id)
		}
		if err != nil {
			return 0, fmt.Errorf("update file %s: %w", rec.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return id, nil
}

// UpsertFileInput carries the fields the walker observed for one path.
type UpsertFileInput struct {
	Path       string
	ParentDir  string
	MediaType  string
	SizeBytes  int64
	Created    *time.Time
	Modified   *time.Time
	Accessed   *time.Time
	HeadSample string
	FullDigest string
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// UpdateFileHashes overwrites a file's head sample and/or full digest,
// using COALESCE semantics: an empty argument leaves the existing value.
func (s *Store) UpdateFileHashes(ctx context.Context, fileID int64, headSample, fullDigest string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE files SET
			head_sample = COALESCE(?, head_sample),
			full_digest = COALESCE(?, full_digest)
		WHERE id = ?`,
		nullIfEmpty(headSample), nullIfEmpty(fullDigest), fileID)
	if err != nil {
		return fmt.Errorf("update hashes for file %d: %w", fileID, err)
	}
	return nil
}

// UpdateFilePath rewrites a file's recorded path and parent directory after
// an archive or restore moves it on disk.
func (s *Store) UpdateFilePath(ctx context.Context, fileID int64, newPath, newParentDir string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE files SET path = ?, parent_dir = ? WHERE id = ?`, newPath, newParentDir, fileID)
	if err != nil {
		return fmt.Errorf("update file path for file %d: %w", fileID, err)
	}
	return nil
}

// ReconcileRoot implements spec.md §4.3's reconciliation contract: every
// live row whose path lies within root and is not in seenPaths is
// tombstoned, unstaged, and has its cool-off cleared; its staged record (if
// any) is removed. Runs inside a single transaction.
func (s *Store) ReconcileRoot(ctx context.Context, root string, seenPaths map[string]bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reconcile tx: %w", err)
	}
	defer tx.Rollback()

	prefix := strings.TrimRight(root, string(filepath.Separator)) + string(filepath.Separator)
	rows, err := tx.QueryContext(ctx, `
		SELECT id, path FROM files WHERE tombstone = 0 AND (path = ? OR path LIKE ? ESCAPE '\')`,
		root, escapeLike(prefix)+"%")
	if err != nil {
		return fmt.Errorf("select files under root %s: %w", root, err)
	}

	var toTombstone []int64
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return fmt.Errorf("scan reconcile row: %w", err)
		}
		if !seenPaths[path] {
			toTombstone = append(toTombstone, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, id := range toTombstone {
		if _, err := tx.ExecContext(ctx, `
			UPDATE files SET tombstone=1, staged=0, cooloff_at=NULL WHERE id=?`, id); err != nil {
			return fmt.Errorf("tombstone file %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM staged_files WHERE file_id=?`, id); err != nil {
			return fmt.Errorf("clear staged record for file %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reconcile: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// GetFile fetches one live-or-tombstoned file by id.
func (s *Store) GetFile(ctx context.Context, id int64) (types.File, error) {
	row := s.db.QueryRowContext(ctx, fileSelectColumns+` FROM files WHERE id = ?`, id)
	return scanFile(row)
}

// GetFileByPath fetches a file by its unique path.
func (s *Store) GetFileByPath(ctx context.Context, path string) (types.File, error) {
	row := s.db.QueryRowContext(ctx, fileSelectColumns+` FROM files WHERE path = ?`, path)
	return scanFile(row)
}

// LiveFiles returns every non-tombstoned file entry, for the selector's
// full-scan classification pass.
func (s *Store) LiveFiles(ctx context.Context) ([]types.File, error) {
	rows, err := s.db.QueryContext(ctx, fileSelectColumns+` FROM files WHERE tombstone = 0`)
	if err != nil {
		return nil, fmt.Errorf("query live files: %w", err)
	}
	defer rows.Close()

	var out []types.File
	for rows.Next() {
		f, err := scanFileRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

const fileSelectColumns = `SELECT id, path, parent_dir, COALESCE(media_type,''), size_bytes,
	created_at, modified_at, accessed_at, last_opened_at,
	COALESCE(head_sample,''), COALESCE(full_digest,''),
	first_seen_at, last_seen_at, tombstone, staged, cooloff_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row *sql.Row) (types.File, error) {
	return scanFileGeneric(row)
}

func scanFileRows(rows *sql.Rows) (types.File, error) {
	return scanFileGeneric(rows)
}

func scanFileGeneric(sc scanner) (types.File, error) {
	var f types.File
	var createdAt sql.NullString
	var modifiedAt, accessedAt, lastOpenedAt, cooloffAt sql.NullString
	var firstSeenAt, lastSeenAt string
	var tombstone, staged int

	err := sc.Scan(&f.ID, &f.Path, &f.ParentDir, &f.MediaType, &f.SizeBytes,
		&createdAt, &modifiedAt, &accessedAt, &lastOpenedAt,
		&f.HeadSample, &f.FullDigest,
		&firstSeenAt, &lastSeenAt, &tombstone, &staged, &cooloffAt)
	if err != nil {
		return types.File{}, fmt.Errorf("scan file row: %w", err)
	}

	if createdAt.Valid {
		t, perr := parseTime(createdAt.String)
		if perr != nil {
			return types.File{}, perr
		}
		f.CreatedAt = t
	}
	if f.ModifiedAt, err = parseTimePtr(modifiedAt); err != nil {
		return types.File{}, err
	}
	if f.AccessedAt, err = parseTimePtr(accessedAt); err != nil {
		return types.File{}, err
	}
	if f.LastOpenedAt, err = parseTimePtr(lastOpenedAt); err != nil {
		return types.File{}, err
	}
	if f.CooloffAt, err = parseTimePtr(cooloffAt); err != nil {
		return types.File{}, err
	}
	if f.FirstSeenAt, err = parseTime(firstSeenAt); err != nil {
		return types.File{}, err
	}
	if f.LastSeenAt, err = parseTime(lastSeenAt); err != nil {
		return types.File{}, err
	}
	f.Tombstone = tombstone != 0
	f.Staged = staged != 0
	return f, nil
}
