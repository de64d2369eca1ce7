// Package scan is the single global scan runtime from spec.md §4.5: a FIFO
// job queue with backpressure, single-flight execution, exact-duplicate-
// root-set coalescing, periodic progress, and a deferred dedup pass. A
// single background goroutine drains the queue one job at a time; within a
// job, roots are walked one at a time too (walk -> upsert -> reconcile per
// root, per §5's ordering guarantee), and only the deferred-dedup pass at
// the end of a job fans out across a bounded pool of goroutines, since by
// then every root has already been reconciled and nothing further races
// it. The queue itself is grounded on
// original_source/src-tauri/src/scanner/mod.rs's mutex-guarded SCAN_STATUS
// pattern.
package scan

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calebandcode/diskhygiene/internal/hashing"
	"github.com/calebandcode/diskhygiene/internal/logging"
	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
	"github.com/calebandcode/diskhygiene/internal/walker"
)

// Trigger tags why a scan job was enqueued.
type Trigger string

const (
	TriggerManual  Trigger = "manual"
	TriggerWatcher Trigger = "watcher"
)

// progressInterval is how many scanned files pass between progress log
// lines during a walk; the status snapshot itself is updated on every file.
const progressInterval = 250

// smallFileThreshold is the size ceiling under which a full digest is
// computed during the walk itself rather than deferred, per spec.md §4.5.
const smallFileThreshold = 4 * 1024 * 1024

// Job carries one scan request: its roots, why it was enqueued, and a
// unique run id that the status snapshot, the job's completion log line and
// its metrics are tagged with, so back-to-back jobs can be told apart.
type Job struct {
	Roots   []string
	Trigger Trigger
	RunID   string
}

func rootKey(roots []string) string {
	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// Status is the process-wide scan status snapshot from spec.md §4.5.
type Status struct {
	State       string // "idle" | "running"
	RunID       string
	Scanned     int
	Skipped     int
	Errors      int
	StartedAt   *time.Time
	FinishedAt  *time.Time
	Roots       []string
	CurrentPath string
	LastError   string
}

// Coordinator is the process-wide singleton scan runtime. It owns the one
// queue and the one status snapshot for the entire process, per spec.md §9
// "Global state".
type Coordinator struct {
	store *store.Store
	log   *logging.Logger

	walkers    int
	queueSize  int
	maxFiles   int
	maxRuntime time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Job
	closed  bool

	statusMu sync.Mutex
	status   Status
}

// New builds a Coordinator and starts its single background processor
// goroutine, which runs until Close is called. resources bounds its
// concurrency, queue depth and per-job limits; a zero value is usable (it
// falls back to a single walker and leaves the queue and per-job caps
// unbounded).
func New(st *store.Store, log *logging.Logger, resources types.ResourceControls) *Coordinator {
	walkers := resources.Walkers
	if walkers < 1 {
		walkers = 1
	}
	c := &Coordinator{
		store:      st,
		log:        log,
		walkers:    walkers,
		queueSize:  resources.QueueSize,
		maxFiles:   resources.MaxFilesPerScan,
		maxRuntime: resources.MaxRuntimePerScan,
		status:     Status{State: "idle"},
	}
	c.cond = sync.NewCond(&c.mu)
	go c.run()
	return c
}

// Enqueue adds a job to the FIFO queue, coalescing it with any already-
// pending job whose root set is identical, per spec.md §4.5 "Single-flight
// rule". If the queue is already at queueSize, Enqueue blocks until the
// processor drains a job, applying backpressure to the caller instead of
// growing the queue without bound.
func (c *Coordinator) Enqueue(job Job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := rootKey(job.Roots)
	for {
		for _, p := range c.pending {
			if rootKey(p.Roots) == key {
				return
			}
		}
		if c.closed {
			return
		}
		if c.queueSize <= 0 || len(c.pending) < c.queueSize {
			break
		}
		c.cond.Wait()
	}

	if job.RunID == "" {
		job.RunID = uuid.New().String()
	}
	c.pending = append(c.pending, job)
	c.cond.Broadcast()
}

// Status returns a copy of the current process-wide scan status.
func (c *Coordinator) Status() Status {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

// Close stops further jobs from being enqueued. The processor goroutine
// exits once every job already pending has run; Close does not wait for it.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

func (c *Coordinator) run() {
	for {
		c.mu.Lock()
		for len(c.pending) == 0 && !c.closed {
			c.cond.Wait()
		}
		if c.closed && len(c.pending) == 0 {
			c.mu.Unlock()
			return
		}
		job := c.pending[0]
		c.pending = c.pending[1:]
		c.cond.Broadcast()
		c.mu.Unlock()

		c.runJob(job)
	}
}

func (c *Coordinator) runJob(job Job) {
	ctx := context.Background()
	if c.maxRuntime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.maxRuntime)
		defer cancel()
	}
	started := time.Now().UTC()

	c.setStatus(Status{State: "running", RunID: job.RunID, Roots: job.Roots, StartedAt: &started})

	collisions := make(map[collisionKey][]collisionMember)

	// Per spec.md §4.5 "For each root (sequentially)": roots in a job are
	// walked one at a time, not fanned out across goroutines. Nested
	// watched roots would otherwise let one root's ReconcileRoot race
	// another root's UpsertFile.
	remaining := c.maxFiles
	for _, root := range job.Roots {
		if ctx.Err() != nil {
			break
		}
		if c.maxFiles > 0 && remaining <= 0 {
			break
		}
		limit := 0
		if c.maxFiles > 0 {
			limit = remaining
		}
		processed := c.walkRoot(ctx, root, collisions, limit)
		remaining -= processed
	}

	c.deferredDedup(ctx, collisions)

	finished := time.Now().UTC()
	c.statusMu.Lock()
	c.status.State = "idle"
	c.status.FinishedAt = &finished
	snapshot := c.status
	c.statusMu.Unlock()

	if c.log != nil {
		c.log.Countf("scan %s done: scanned=%d skipped=%d errors=%d roots=%v", job.RunID, snapshot.Scanned, snapshot.Skipped, snapshot.Errors, job.Roots)
	}

	durationMs := finished.Sub(started).Milliseconds()
	if c.store != nil {
		runCtx := job.RunID + ":" + strings.Join(job.Roots, ",")
		_ = c.store.InsertMetric(ctx, "scan.duration_ms", float64(durationMs), runCtx)
		_ = c.store.InsertMetric(ctx, "scan.files_seen", float64(snapshot.Scanned), runCtx)
	}
}

type collisionKey struct {
	size int64
	head string
}

type collisionMember struct {
	fileID int64
	path   string
}

// walkRoot walks one root to completion, hashing and upserting at most
// limit files (0 means unlimited), and returns the number of files it
// actually processed. Reconciliation only runs when the walk itself ran to
// completion (ctx wasn't cancelled mid-walk); stopping early because
// limit was reached doesn't affect reconciliation, since the walk still
// observed every path on disk, even ones it chose not to hash this pass.
func (c *Coordinator) walkRoot(ctx context.Context, root string, collisions map[collisionKey][]collisionMember, limit int) int {
	result, err := walker.Walk(ctx, root)
	if err != nil {
		c.statusMu.Lock()
		c.status.LastError = err.Error()
		c.statusMu.Unlock()
		if c.log != nil {
			c.log.Errorf("walk %s: %v", root, err)
		}
		return 0
	}

	processed := 0
	for _, rec := range result.Records {
		if ctx.Err() != nil {
			break
		}
		if limit > 0 && processed >= limit {
			break
		}

		headSample, err := hashing.HeadSample(rec.Path)
		if err != nil {
			c.bumpSkipped(err)
			continue
		}

		var fullDigest string
		if rec.Size <= smallFileThreshold {
			fullDigest, err = hashing.FullDigest(rec.Path)
			if err != nil {
				c.bumpSkipped(err)
				continue
			}
		}

		id, err := c.store.UpsertFile(ctx, store.UpsertFileInput{
			Path: rec.Path, ParentDir: rec.Parent, MediaType: rec.MediaType, SizeBytes: rec.Size,
			Created: rec.Created, Modified: rec.Modified, Accessed: rec.Accessed,
			HeadSample: headSample, FullDigest: fullDigest,
		})
		if err != nil {
			c.bumpSkipped(err)
			continue
		}

		key := collisionKey{size: rec.Size, head: headSample}
		collisions[key] = append(collisions[key], collisionMember{fileID: id, path: rec.Path})

		c.statusMu.Lock()
		c.status.Scanned++
		c.status.CurrentPath = rec.Path
		scanned := c.status.Scanned
		c.statusMu.Unlock()

		if scanned%progressInterval == 0 && c.log != nil {
			c.log.Countf("scan progress: scanned=%d skipped=%d errors=%d path=%s", scanned, c.status.Skipped, c.status.Errors, rec.Path)
		}
		processed++
	}

	c.statusMu.Lock()
	c.status.Skipped += result.Skipped
	for _, m := range result.ErrMessages {
		c.status.Errors++
		c.status.LastError = m
	}
	c.statusMu.Unlock()

	if ctx.Err() == nil {
		if err := c.store.ReconcileRoot(ctx, root, result.SeenPaths); err != nil && c.log != nil {
			c.log.Errorf("reconcile root %s: %v", root, err)
		}
	}

	return processed
}

func (c *Coordinator) bumpSkipped(err error) {
	c.statusMu.Lock()
	c.status.Skipped++
	c.status.LastError = err.Error()
	c.statusMu.Unlock()
}

// deferredDedup computes full digests for every (size, head_sample) group
// with 2+ members, the only place files over smallFileThreshold receive a
// full digest, per spec.md §4.5. All roots have already been walked by the
// time this runs, so hashing members across different files is safe to
// fan out across c.walkers goroutines: each touches a distinct file id and
// UpdateFileHashes is a self-contained transaction.
func (c *Coordinator) deferredDedup(ctx context.Context, collisions map[collisionKey][]collisionMember) {
	sem := make(chan struct{}, c.walkers)
	var wg sync.WaitGroup

	for _, members := range collisions {
		if len(members) < 2 {
			continue
		}
		for _, m := range members {
			m := m
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				digest, err := hashing.FullDigest(m.path)
				if err != nil {
					c.bumpSkipped(err)
					return
				}
				if err := c.store.UpdateFileHashes(ctx, m.fileID, "", digest); err != nil && c.log != nil {
					c.log.Errorf("update digest for %s: %v", m.path, err)
				}
			}()
		}
	}

	wg.Wait()
}

func (c *Coordinator) setStatus(s Status) {
	c.statusMu.Lock()
	c.status = Status{State: s.State, RunID: s.RunID, Roots: s.Roots, StartedAt: s.StartedAt}
	c.statusMu.Unlock()
}
