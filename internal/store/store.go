// Package store is the durable transactional catalog described in spec.md
// §4.3: files, actions, watched roots, staged records, preferences and
// metrics, backed by database/sql over modernc.org/sqlite (pure Go, no
// cgo), mirroring original_source/src-tauri/src/db/database.rs's schema and
// WAL setup. Migrations use the ensure_column presence-check pattern from
// the same file: additive only, never renaming or dropping a column.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps the index database connection pool.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path, enables
// WAL mode, and runs migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	// A single writer connection avoids SQLITE_BUSY under WAL with this
	// driver's default locking; readers still see consistent snapshots.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			parent_dir TEXT NOT NULL,
			media_type TEXT,
			size_bytes INTEGER NOT NULL,
			created_at TEXT,
			first_seen_at TEXT NOT NULL,
			last_seen_at TEXT NOT NULL,
			tombstone INTEGER NOT NULL DEFAULT 0,
			staged INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_id INTEGER NOT NULL REFERENCES files(id),
			kind TEXT NOT NULL CHECK (kind IN ('archive','delete','restore')),
			batch_id TEXT NOT NULL,
			src_path TEXT NOT NULL,
			dst_path TEXT NOT NULL,
			origin TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS watched_roots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS staged_files (
			file_id INTEGER PRIMARY KEY REFERENCES files(id),
			staged_at TEXT NOT NULL,
			expires_at TEXT,
			batch_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK (status IN ('staged','restored','emptied')),
			note TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS prefs (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			value REAL NOT NULL,
			context TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_tombstone ON files(tombstone)`,
		`CREATE INDEX IF NOT EXISTS idx_files_parent_dir ON files(parent_dir)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_batch_id ON actions(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_created_at ON actions(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %s: %w", stmt, err)
		}
	}

	additive := []struct{ table, column, coltype string }{
		{"files", "modified_at", "TEXT"},
		{"files", "accessed_at", "TEXT"},
		{"files", "last_opened_at", "TEXT"},
		{"files", "head_sample", "TEXT"},
		{"files", "full_digest", "TEXT"},
		{"files", "cooloff_at", "TEXT"},
	}
	for _, col := range additive {
		if err := s.ensureColumn(ctx, col.table, col.column, col.coltype); err != nil {
			return err
		}
	}
	return nil
}

// ensureColumn adds column to table if it does not already exist, following
// the presence-check-then-ALTER pattern so the schema only ever grows.
func (s *Store) ensureColumn(ctx context.Context, table, column, coltype string) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return fmt.Errorf("inspect %s columns: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dfltValue  sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &primaryKey); err != nil {
			return fmt.Errorf("scan %s column info: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, coltype))
	if err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}
