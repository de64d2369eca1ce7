package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calebandcode/diskhygiene/internal/types"
)

// UpsertStaged records or updates a file's staged record and sets the
// file's staged flag to true when the record's status is staged, false
// otherwise. At most one staged record exists per file id.
func (s *Store) UpsertStaged(ctx context.Context, rec types.StagedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert staged tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO staged_files (file_id, staged_at, expires_at, batch_id, status, note)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			staged_at = excluded.staged_at,
			expires_at = excluded.expires_at,
			batch_id = excluded.batch_id,
			status = excluded.status,
			note = excluded.note`,
		rec.FileID, formatTime(rec.StagedAt), formatTimePtr(rec.ExpiresAt), rec.BatchID, string(rec.Status), rec.Note)
	if err != nil {
		return fmt.Errorf("upsert staged record for file %d: %w", rec.FileID, err)
	}

	staged := 0
	if rec.Status == types.StagedActive {
		staged = 1
	}
	if _, err := tx.ExecContext(ctx, `UPDATE files SET staged = ? WHERE id = ?`, staged, rec.FileID); err != nil {
		return fmt.Errorf("update staged flag for file %d: %w", rec.FileID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert staged: %w", err)
	}
	return nil
}

// MarkStagedStatus transitions a staged record's status (staged→restored or
// staged→emptied) and clears the file's staged flag when leaving "staged".
func (s *Store) MarkStagedStatus(ctx context.Context, fileID int64, status types.StagedStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark staged tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE staged_files SET status = ? WHERE file_id = ?`, string(status), fileID); err != nil {
		return fmt.Errorf("mark staged status for file %d: %w", fileID, err)
	}

	staged := 0
	if status == types.StagedActive {
		staged = 1
	}
	if _, err := tx.ExecContext(ctx, `UPDATE files SET staged = ? WHERE id = ?`, staged, fileID); err != nil {
		return fmt.Errorf("update staged flag for file %d: %w", fileID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark staged: %w", err)
	}
	return nil
}

// ListStaged returns staged records, optionally filtered to a set of
// statuses (all statuses when empty).
func (s *Store) ListStaged(ctx context.Context, statuses []types.StagedStatus) ([]types.StagedRecord, error) {
	query := `SELECT file_id, staged_at, expires_at, batch_id, status, note FROM staged_files`
	args := []any{}
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY staged_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query staged records: %w", err)
	}
	defer rows.Close()

	var out []types.StagedRecord
	for rows.Next() {
		rec, err := scanStaged(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanStaged(rows *sql.Rows) (types.StagedRecord, error) {
	var rec types.StagedRecord
	var stagedAt string
	var expiresAt sql.NullString
	var status string
	if err := rows.Scan(&rec.FileID, &stagedAt, &expiresAt, &rec.BatchID, &status, &rec.Note); err != nil {
		return types.StagedRecord{}, fmt.Errorf("scan staged row: %w", err)
	}
	t, err := parseTime(stagedAt)
	if err != nil {
		return types.StagedRecord{}, err
	}
	rec.StagedAt = t
	if rec.ExpiresAt, err = parseTimePtr(expiresAt); err != nil {
		return types.StagedRecord{}, err
	}
	rec.Status = types.StagedStatus(status)
	return rec, nil
}

// StagedBytesInWindow sums the sizes of files whose staged record has
// status=staged and staged_at within [since, now], per spec.md §4.8.
func (s *Store) StagedBytesInWindow(ctx context.Context, since, now time.Time) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(f.size_bytes), 0)
		FROM staged_files sf
		JOIN files f ON f.id = sf.file_id
		WHERE sf.status = 'staged' AND sf.staged_at BETWEEN ? AND ?`,
		formatTime(since), formatTime(now)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum staged bytes in window: %w", err)
	}
	return total.Int64, nil
}

func placeholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += "?"
	}
	return out
}
