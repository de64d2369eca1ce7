package scan

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
)

func TestRootKey_OrderIndependentButContentSensitive(t *testing.T) {
	require.Equal(t, rootKey([]string{"/a", "/b"}), rootKey([]string{"/b", "/a"}))
	require.NotEqual(t, rootKey([]string{"/a"}), rootKey([]string{"/a", "/b"}))
}

// newIdleCoordinator builds a Coordinator with no background processor
// goroutine running, so Enqueue's pending-queue bookkeeping can be inspected
// deterministically without racing a consumer.
func newIdleCoordinator() *Coordinator {
	c := &Coordinator{walkers: 1, status: Status{State: "idle"}}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func TestEnqueue_CoalescesIdenticalRootSetRegardlessOfOrder(t *testing.T) {
	c := newIdleCoordinator()

	c.Enqueue(Job{Roots: []string{"/a", "/b"}})
	c.Enqueue(Job{Roots: []string{"/b", "/a"}})

	require.Len(t, c.pending, 1, "a job with an identical root set must coalesce with the pending one")
}

func TestEnqueue_DistinctRootSetsBothQueue(t *testing.T) {
	c := newIdleCoordinator()

	c.Enqueue(Job{Roots: []string{"/a"}})
	c.Enqueue(Job{Roots: []string{"/c"}})

	require.Len(t, c.pending, 2)
}

func TestEnqueue_MintsRunIDWhenEmpty(t *testing.T) {
	c := newIdleCoordinator()
	c.Enqueue(Job{Roots: []string{"/a"}})
	require.NotEmpty(t, c.pending[0].RunID)
}

func TestEnqueue_PreservesCallerSuppliedRunID(t *testing.T) {
	c := newIdleCoordinator()
	c.Enqueue(Job{Roots: []string{"/a"}, RunID: "fixed-id"})
	require.Equal(t, "fixed-id", c.pending[0].RunID)
}

// waitForIdle polls until the coordinator reports idle with a FinishedAt
// strictly after since, so a caller enqueuing back-to-back jobs can wait for
// the NEXT completion rather than observing a stale idle snapshot left over
// from a prior job.
func waitForIdle(t *testing.T, c *Coordinator, since time.Time) Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := c.Status()
		if s.State == "idle" && s.FinishedAt != nil && s.FinishedAt.After(since) {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("coordinator never returned to idle")
	return Status{}
}

func TestCoordinator_RunsEnqueuedJobAndScansFiles(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer st.Close()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))

	c := New(st, nil, types.ResourceControls{Walkers: 2})
	defer c.Close()

	t0 := time.Now()
	c.Enqueue(Job{Roots: []string{root}, Trigger: TriggerManual})

	status := waitForIdle(t, c, t0)
	require.Equal(t, 1, status.Scanned)
	require.NotEmpty(t, status.RunID)

	files, err := st.LiveFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(root, "a.txt"), files[0].Path)
	require.NotEmpty(t, files[0].HeadSample)
}

func TestCoordinator_ReconcileTombstonesDeletedFile(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer st.Close()

	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	c := New(st, nil, types.ResourceControls{Walkers: 2})
	defer c.Close()

	t0 := time.Now()
	c.Enqueue(Job{Roots: []string{root}})
	waitForIdle(t, c, t0)

	require.NoError(t, os.Remove(path))

	t1 := time.Now()
	c.Enqueue(Job{Roots: []string{root}})
	waitForIdle(t, c, t1)

	files, err := st.LiveFiles(context.Background())
	require.NoError(t, err)
	require.Empty(t, files, "a file removed from disk must be tombstoned out of the live set on rescan")
}
