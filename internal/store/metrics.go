package store

import (
	"context"
	"fmt"
	"time"
)

// InsertMetric appends one time-series observation. Metrics are append-only
// and never updated or deleted.
func (s *Store) InsertMetric(ctx context.Context, name string, value float64, context_ string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics (name, value, context, created_at) VALUES (?, ?, ?, ?)`,
		name, value, context_, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("insert metric %s: %w", name, err)
	}
	return nil
}
