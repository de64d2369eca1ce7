package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calebandcode/diskhygiene/internal/store"
)

type fakeSpaceChecker struct {
	ok  bool
	err error
}

func (f fakeSpaceChecker) HasSpaceFor(dir string, totalBytes int64) (bool, error) {
	return f.ok, f.err
}

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return &Engine{Store: st, SpaceChecker: fakeSpaceChecker{ok: true}}, st
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestArchive_MovesFileAndLogsAction(t *testing.T) {
	ctx := context.Background()
	eng, st := newTestEngine(t)

	srcDir := t.TempDir()
	archDir := t.TempDir()
	src := filepath.Join(srcDir, "a.txt")
	writeFile(t, src, "hello")

	id, err := st.UpsertFile(ctx, store.UpsertFileInput{Path: src, ParentDir: srcDir, SizeBytes: 5})
	require.NoError(t, err)

	out, err := eng.Archive(ctx, archDir, []int64{id})
	require.NoError(t, err)
	require.True(t, out.Success())
	require.Len(t, out.Succeeded, 1)

	_, statErr := os.Stat(src)
	require.True(t, os.IsNotExist(statErr), "source must be gone after archive")

	f, err := st.GetFile(ctx, id)
	require.NoError(t, err)
	_, statErr = os.Stat(f.Path)
	require.NoError(t, statErr, "archived file must exist at its new recorded path")

	batches, err := st.UndoableBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, out.BatchID, batches[0].ID)
}

func TestArchive_CollisionAppendsCounter(t *testing.T) {
	ctx := context.Background()
	eng, st := newTestEngine(t)

	srcDir := t.TempDir()
	archDir := t.TempDir()
	datedDir := filepath.Join(archDir, time.Now().Format(ArchiveDateFormat))
	writeFile(t, filepath.Join(datedDir, "a.txt"), "existing")

	src := filepath.Join(srcDir, "a.txt")
	writeFile(t, src, "new")
	id, err := st.UpsertFile(ctx, store.UpsertFileInput{Path: src, ParentDir: srcDir, SizeBytes: 3})
	require.NoError(t, err)

	out, err := eng.Archive(ctx, archDir, []int64{id})
	require.NoError(t, err)
	require.True(t, out.Success())

	f, err := st.GetFile(ctx, id)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(datedDir, "a (1).txt"), f.Path)
}

func TestArchive_InsufficientSpaceFailsPreflight(t *testing.T) {
	ctx := context.Background()
	eng, st := newTestEngine(t)
	eng.SpaceChecker = fakeSpaceChecker{ok: false}

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.txt")
	writeFile(t, src, "hello")
	id, err := st.UpsertFile(ctx, store.UpsertFileInput{Path: src, ParentDir: srcDir, SizeBytes: 5})
	require.NoError(t, err)

	_, err = eng.Archive(ctx, t.TempDir(), []int64{id})
	require.Error(t, err)

	_, statErr := os.Stat(src)
	require.NoError(t, statErr, "source must be untouched when preflight fails")
}

func TestDelete_PermanentRemovesFile(t *testing.T) {
	ctx := context.Background()
	eng, st := newTestEngine(t)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.txt")
	writeFile(t, src, "bye")
	id, err := st.UpsertFile(ctx, store.UpsertFileInput{Path: src, ParentDir: srcDir, SizeBytes: 3})
	require.NoError(t, err)

	out, err := eng.Delete(ctx, []int64{id}, false)
	require.NoError(t, err)
	require.True(t, out.Success())

	_, statErr := os.Stat(src)
	require.True(t, os.IsNotExist(statErr))
}

func TestUndoBatch_RestoresArchivedFile(t *testing.T) {
	ctx := context.Background()
	eng, st := newTestEngine(t)

	srcDir := t.TempDir()
	archDir := t.TempDir()
	src := filepath.Join(srcDir, "a.txt")
	writeFile(t, src, "hello")
	id, err := st.UpsertFile(ctx, store.UpsertFileInput{Path: src, ParentDir: srcDir, SizeBytes: 5})
	require.NoError(t, err)

	out, err := eng.Archive(ctx, archDir, []int64{id})
	require.NoError(t, err)

	res, err := eng.UndoBatch(ctx, out.BatchID)
	require.NoError(t, err)
	require.False(t, res.RollbackPerformed)
	require.Equal(t, 1, res.FilesRestored)

	_, statErr := os.Stat(src)
	require.NoError(t, statErr, "undo must restore the file to its original path")

	f, err := st.GetFile(ctx, id)
	require.NoError(t, err)
	require.Equal(t, src, f.Path)
}

func TestUndoBatch_RollsBackOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	eng, st := newTestEngine(t)

	srcDir := t.TempDir()
	archDir := t.TempDir()

	srcA := filepath.Join(srcDir, "a.txt")
	srcB := filepath.Join(srcDir, "b.txt")
	writeFile(t, srcA, "a")
	writeFile(t, srcB, "b")

	idA, err := st.UpsertFile(ctx, store.UpsertFileInput{Path: srcA, ParentDir: srcDir, SizeBytes: 1})
	require.NoError(t, err)
	idB, err := st.UpsertFile(ctx, store.UpsertFileInput{Path: srcB, ParentDir: srcDir, SizeBytes: 1})
	require.NoError(t, err)

	// Archive B before A so restore processes B first (oldest action first);
	// B must already be moved back when A's restore fails, to exercise rollback.
	out, err := eng.Archive(ctx, archDir, []int64{idB, idA})
	require.NoError(t, err)
	require.True(t, out.Success())

	// Recreate srcA at its original live path so restoring A collides.
	writeFile(t, srcA, "blocker")

	res, err := eng.UndoBatch(ctx, out.BatchID)
	require.NoError(t, err)
	require.True(t, res.RollbackPerformed)

	fB, err := st.GetFile(ctx, idB)
	require.NoError(t, err)
	_, statErr := os.Stat(fB.Path)
	require.NoError(t, statErr, "B must be rolled back to its archived location, not left restored")
	_, liveErr := os.Stat(srcB)
	require.True(t, os.IsNotExist(liveErr), "B must not be left at its live path after rollback")

	batches, err := st.UndoableBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1, "no restore action should be logged when rollback occurs")
}

func TestResolveCollisionFreeName_NoCollision(t *testing.T) {
	dir := t.TempDir()
	name, err := resolveCollisionFreeName(dir, "a.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "a.txt"), name)
}

func TestResolveCollisionFreeName_IncrementsCounter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")
	writeFile(t, filepath.Join(dir, "a (1).txt"), "x")

	name, err := resolveCollisionFreeName(dir, "a.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "a (2).txt"), name)
}
