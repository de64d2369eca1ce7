package store

import (
	"context"
	"fmt"

	"github.com/calebandcode/diskhygiene/internal/types"
)

// DuplicateGroup is one full_digest cluster of live files sharing content.
type DuplicateGroup struct {
	FullDigest string
	Files      []types.File
}

// DuplicateGroups returns groups of live files sharing a non-null
// full_digest where the group has at least 2 members, ordered by
// descending group size, each group's files ordered by descending size —
// per spec.md §4.3 "Duplicate enumeration".
func (s *Store) DuplicateGroups(ctx context.Context, limit int) ([]DuplicateGroup, error) {
	digestRows, err := s.db.QueryContext(ctx, `
		SELECT full_digest, COUNT(*) AS n
		FROM files
		WHERE tombstone = 0 AND full_digest IS NOT NULL AND full_digest != ''
		GROUP BY full_digest
		HAVING COUNT(*) >= 2
		ORDER BY n DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query duplicate digests: %w", err)
	}

	var digests []string
	for digestRows.Next() {
		var digest string
		var n int
		if err := digestRows.Scan(&digest, &n); err != nil {
			digestRows.Close()
			return nil, fmt.Errorf("scan duplicate digest row: %w", err)
		}
		digests = append(digests, digest)
	}
	if err := digestRows.Err(); err != nil {
		digestRows.Close()
		return nil, err
	}
	digestRows.Close()

	groups := make([]DuplicateGroup, 0, len(digests))
	for _, digest := range digests {
		rows, err := s.db.QueryContext(ctx, fileSelectColumns+`
			FROM files WHERE tombstone = 0 AND full_digest = ? ORDER BY size_bytes DESC`, digest)
		if err != nil {
			return nil, fmt.Errorf("query members of duplicate group %s: %w", digest, err)
		}

		var members []types.File
		for rows.Next() {
			f, err := scanFileRows(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			members = append(members, f)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		groups = append(groups, DuplicateGroup{FullDigest: digest, Files: members})
	}

	return groups, nil
}
