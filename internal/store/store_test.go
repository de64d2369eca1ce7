package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calebandcode/diskhygiene/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	st, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen_CreatesSchemaAndIsReopenable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	st, err := Open(path)
	require.NoError(t, err)
	_, err = st.AddWatchedRoot(ctx, "/tmp/roots/a")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	roots, err := reopened.ListWatchedRoots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, "/tmp/roots/a", roots[0].Path)
}

func TestUpsertFile_InsertThenUpdatePreservesFirstSeen(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.UpsertFile(ctx, UpsertFileInput{
		Path: "/a/b.txt", ParentDir: "/a", SizeBytes: 10, HeadSample: "deadbeef",
	})
	require.NoError(t, err)

	first, err := st.GetFile(ctx, id)
	require.NoError(t, err)

	id2, err := st.UpsertFile(ctx, UpsertFileInput{
		Path: "/a/b.txt", ParentDir: "/a", SizeBytes: 20, HeadSample: "cafebabe",
	})
	require.NoError(t, err)
	require.Equal(t, id, id2, "upsert by path must update the same row, not insert a new one")

	second, err := st.GetFile(ctx, id)
	require.NoError(t, err)
	require.Equal(t, first.FirstSeenAt.Unix(), second.FirstSeenAt.Unix())
	require.Equal(t, int64(20), second.SizeBytes)
	require.Equal(t, "cafebabe", second.HeadSample)
}

func TestUpsertFile_EmptyFullDigestDoesNotOverwriteExisting(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.UpsertFile(ctx, UpsertFileInput{Path: "/a/b.txt", ParentDir: "/a", SizeBytes: 10, FullDigest: "abc123"})
	require.NoError(t, err)

	_, err = st.UpsertFile(ctx, UpsertFileInput{Path: "/a/b.txt", ParentDir: "/a", SizeBytes: 10})
	require.NoError(t, err)

	f, err := st.GetFile(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "abc123", f.FullDigest, "a re-upsert with no full digest must not clear the existing one")
}

func TestReconcileRoot_TombstonesUnseenFiles(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.UpsertFile(ctx, UpsertFileInput{Path: "/root/a.txt", ParentDir: "/root", SizeBytes: 1})
	require.NoError(t, err)
	other, err := st.UpsertFile(ctx, UpsertFileInput{Path: "/root/b.txt", ParentDir: "/root", SizeBytes: 1})
	require.NoError(t, err)

	require.NoError(t, st.ReconcileRoot(ctx, "/root", map[string]bool{"/root/b.txt": true}))

	tombstoned, err := st.GetFile(ctx, id)
	require.NoError(t, err)
	require.True(t, tombstoned.Tombstone)

	kept, err := st.GetFile(ctx, other)
	require.NoError(t, err)
	require.False(t, kept.Tombstone)
}

func TestReconcileRoot_ClearsStagedRecordForTombstonedFile(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.UpsertFile(ctx, UpsertFileInput{Path: "/root/a.txt", ParentDir: "/root", SizeBytes: 1})
	require.NoError(t, err)
	require.NoError(t, st.UpsertStaged(ctx, types.StagedRecord{FileID: id, StagedAt: time.Now(), Status: types.StagedActive}))

	require.NoError(t, st.ReconcileRoot(ctx, "/root", map[string]bool{}))

	recs, err := st.ListStaged(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestWatchedRoots_AddListRemove(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	root, err := st.AddWatchedRoot(ctx, "/watched")
	require.NoError(t, err)

	roots, err := st.ListWatchedRoots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	require.NoError(t, st.RemoveWatchedRoot(ctx, root.ID))
	roots, err = st.ListWatchedRoots(ctx)
	require.NoError(t, err)
	require.Empty(t, roots)

	err = st.RemoveWatchedRoot(ctx, root.ID)
	require.Error(t, err)
}

func TestPreferences_SetGetAll(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, ok, err := st.GetPreference(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.SetPreference(ctx, "tidy_hour", "9"))
	require.NoError(t, st.SetPreference(ctx, "tidy_hour", "10"))

	v, ok, err := st.GetPreference(ctx, "tidy_hour")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "10", v)

	all, err := st.AllPreferences(ctx)
	require.NoError(t, err)
	require.Equal(t, "10", all["tidy_hour"])
}

func TestActions_InsertAndUndoableBatches(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.UpsertFile(ctx, UpsertFileInput{Path: "/a/file.txt", ParentDir: "/a", SizeBytes: 1})
	require.NoError(t, err)

	require.NoError(t, st.InsertActions(ctx, []NewAction{
		{FileID: id, Kind: types.ActionArchive, BatchID: "archive_1", SrcPath: "/a/file.txt", DstPath: "/arch/file.txt", Origin: "command"},
	}))

	batches, err := st.UndoableBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, "archive_1", batches[0].ID)
	require.True(t, batches[0].Undoable)

	latest, err := st.LatestUndoableBatchID(ctx)
	require.NoError(t, err)
	require.Equal(t, "archive_1", latest)

	require.NoError(t, st.InsertActions(ctx, []NewAction{
		{FileID: id, Kind: types.ActionRestore, BatchID: "restore_1", SrcPath: "/arch/file.txt", DstPath: "/a/file.txt", Origin: "command"},
	}))

	batches, err = st.UndoableBatches(ctx)
	require.NoError(t, err)
	require.Empty(t, batches, "a batch whose file was later restored must not be listed as undoable")
}

func TestStaged_UpsertAndMarkStatus(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.UpsertFile(ctx, UpsertFileInput{Path: "/a/file.txt", ParentDir: "/a", SizeBytes: 1})
	require.NoError(t, err)

	require.NoError(t, st.UpsertStaged(ctx, types.StagedRecord{FileID: id, StagedAt: time.Now(), Status: types.StagedActive, BatchID: "archive_1"}))

	f, err := st.GetFile(ctx, id)
	require.NoError(t, err)
	require.True(t, f.Staged)

	require.NoError(t, st.MarkStagedStatus(ctx, id, types.StagedRestored))

	f, err = st.GetFile(ctx, id)
	require.NoError(t, err)
	require.False(t, f.Staged)

	recs, err := st.ListStaged(ctx, []types.StagedStatus{types.StagedRestored})
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestDuplicateGroups_OnlyGroupsWithTwoOrMoreMembers(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, err := st.UpsertFile(ctx, UpsertFileInput{Path: "/a/1.txt", ParentDir: "/a", SizeBytes: 5, FullDigest: "dupe"})
	require.NoError(t, err)
	_, err = st.UpsertFile(ctx, UpsertFileInput{Path: "/a/2.txt", ParentDir: "/a", SizeBytes: 5, FullDigest: "dupe"})
	require.NoError(t, err)
	_, err = st.UpsertFile(ctx, UpsertFileInput{Path: "/a/3.txt", ParentDir: "/a", SizeBytes: 5, FullDigest: "unique"})
	require.NoError(t, err)

	groups, err := st.DuplicateGroups(ctx, 10)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "dupe", groups[0].FullDigest)
	require.Len(t, groups[0].Files, 2)
}

func TestGaugeQueries_WindowFiltering(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.UpsertFile(ctx, UpsertFileInput{Path: "/a/file.txt", ParentDir: "/a", SizeBytes: 100})
	require.NoError(t, err)
	require.NoError(t, st.InsertActions(ctx, []NewAction{
		{FileID: id, Kind: types.ActionArchive, BatchID: "archive_1", SrcPath: "/a/file.txt", DstPath: "/arch/file.txt", Origin: "command"},
	}))

	now := time.Now()
	bytes, err := st.ArchivedBytesInWindow(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(100), bytes)

	bytes, err = st.ArchivedBytesInWindow(ctx, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Zero(t, bytes)
}
