package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calebandcode/diskhygiene/internal/types"
)

// AddWatchedRoot inserts a new watched root; unique by path.
func (s *Store) AddWatchedRoot(ctx context.Context, path string) (types.WatchedRoot, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `INSERT INTO watched_roots (path, created_at) VALUES (?, ?)`, path, formatTime(now))
	if err != nil {
		return types.WatchedRoot{}, fmt.Errorf("add watched root %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.WatchedRoot{}, fmt.Errorf("read inserted root id: %w", err)
	}
	return types.WatchedRoot{ID: id, Path: path, CreatedAt: now.UTC()}, nil
}

// RemoveWatchedRoot deletes a watched root by id. File entries beneath it
// are left untouched, per spec.md §3's Watched root lifecycle note.
func (s *Store) RemoveWatchedRoot(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM watched_roots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove watched root %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm removal of watched root %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("watched root %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListWatchedRoots returns every watched root, oldest first.
func (s *Store) ListWatchedRoots(ctx context.Context) ([]types.WatchedRoot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, path, created_at FROM watched_roots ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list watched roots: %w", err)
	}
	defer rows.Close()

	var out []types.WatchedRoot
	for rows.Next() {
		var r types.WatchedRoot
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Path, &createdAt); err != nil {
			return nil, fmt.Errorf("scan watched root row: %w", err)
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		r.CreatedAt = t
		out = append(out, r)
	}
	return out, rows.Err()
}

// ErrNotFound is returned by store lookups that find no matching row; the
// facade maps it onto apperr.NotFound.
var ErrNotFound = sql.ErrNoRows
