// Package types holds the data model shared across every component of the
// disk hygiene engine: the File/Action/Batch/StagedRecord/WatchedRoot/
// Metric entities from the data model, plus the process-wide resource
// controls threaded through the scan coordinator.
package types

import "time"

// ActionKind is the closed set of file-level operations an Action records.
type ActionKind string

const (
	ActionArchive ActionKind = "archive"
	ActionDelete  ActionKind = "delete"
	ActionRestore ActionKind = "restore"
)

// StagedStatus mirrors the canonical file state for a staged record.
type StagedStatus string

const (
	StagedActive   StagedStatus = "staged"
	StagedRestored StagedStatus = "restored"
	StagedEmptied  StagedStatus = "emptied"
)

// File is one row of the catalog's live-file entry.
//
// Invariants (enforced by internal/store, not by this struct):
//   - Path is unique among rows.
//   - LastSeenAt >= FirstSeenAt.
//   - Staged == true implies a matching StagedRecord exists; Staged == false
//     implies none does.
//   - Tombstone == true implies Staged == false and CooloffAt == nil.
//   - SizeBytes >= 0.
type File struct {
	ID           int64
	Path         string
	ParentDir    string
	MediaType    string // empty when absent
	SizeBytes    int64
	CreatedAt    time.Time
	ModifiedAt   *time.Time
	AccessedAt   *time.Time
	LastOpenedAt *time.Time
	HeadSample   string // hex SHA-1 over the first 256KiB, empty when absent
	FullDigest   string // hex SHA-1 over full content, empty when absent
	FirstSeenAt  time.Time
	LastSeenAt   time.Time
	Tombstone    bool
	Staged       bool
	CooloffAt    *time.Time
}

// Action is one append-only record of a file-level operation.
type Action struct {
	ID        int64
	FileID    int64
	Kind      ActionKind
	BatchID   string
	SrcPath   string
	DstPath   string
	Origin    string
	Note      string
	CreatedAt time.Time
}

// Batch is the implicit entity formed by the set of Actions sharing a BatchID.
type Batch struct {
	ID        string
	Kind      ActionKind
	FileCount int
	CreatedAt time.Time
	Undoable  bool
}

// StagedRecord tracks one archived-but-still-undoable file.
type StagedRecord struct {
	FileID    int64
	StagedAt  time.Time
	ExpiresAt *time.Time
	BatchID   string
	Status    StagedStatus
	Note      string
}

// WatchedRoot is a user-registered directory eligible for scanning.
type WatchedRoot struct {
	ID        int64
	Path      string
	CreatedAt time.Time
}

// Metric is one append-only time-series observation.
type Metric struct {
	ID        int64
	Name      string
	Value     float64
	Context   string
	CreatedAt time.Time
}

// ResourceControls bounds the scan coordinator's concurrency and runtime:
// walkers, queue depth, per-run caps. Kept as its own type so the facade,
// scan coordinator and CLI all share one definition instead of threading
// loose ints around.
type ResourceControls struct {
	// Walkers bounds how many goroutines the coordinator runs concurrently
	// for its CPU/IO-bound hashing work — currently the deferred-dedup
	// full-digest pass. Roots within one job are always walked one at a
	// time (per the §5 per-root ordering guarantee: walk -> upsert ->
	// reconcile), so this never bounds cross-root concurrency.
	Walkers int

	// QueueSize bounds how many jobs may sit in the FIFO queue at once;
	// Enqueue blocks the caller once it's full (backpressure). 0 means
	// unbounded.
	QueueSize int

	// MaxFilesPerScan caps how many files a single scan job will process
	// across all of its roots. 0 means unlimited.
	MaxFilesPerScan int

	// MaxRuntimePerScan caps how long a single scan job may run before its
	// context is cancelled and the remaining walk is abandoned gracefully.
	// 0 means unlimited.
	MaxRuntimePerScan time.Duration
}

// DefaultResourceControls gives conservative defaults (bounded walkers, a
// moderate queue, no caps) so a single-flight scan behaves predictably on
// first run.
func DefaultResourceControls() ResourceControls {
	return ResourceControls{
		Walkers:   2,
		QueueSize: 300,
	}
}
