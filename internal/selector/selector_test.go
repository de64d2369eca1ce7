package selector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
)

func TestAgeDays_PrefersAccessedThenModifiedThenLastSeen(t *testing.T) {
	now := time.Now()
	accessed := now.Add(-48 * time.Hour)
	modified := now.Add(-96 * time.Hour)
	lastSeen := now.Add(-240 * time.Hour)

	withAccessed := types.File{AccessedAt: &accessed, ModifiedAt: &modified, LastSeenAt: lastSeen}
	require.InDelta(t, 2.0, AgeDays(withAccessed, now), 0.01)

	withModifiedOnly := types.File{ModifiedAt: &modified, LastSeenAt: lastSeen}
	require.InDelta(t, 4.0, AgeDays(withModifiedOnly, now), 0.01)

	withNeither := types.File{LastSeenAt: lastSeen}
	require.InDelta(t, 10.0, AgeDays(withNeither, now), 0.01)
}

func TestScore_ZeroFactorsYieldsLowestScore(t *testing.T) {
	s := Score(Factors{})
	require.GreaterOrEqual(t, s, 0.0)
	require.Less(t, s, 0.1)
}

func TestScore_GitRepoAndBurstOutweighSizeAndDuplicate(t *testing.T) {
	f := Factors{
		SizeBytes: maxSizeBytes, AgeDays: maxAgeDays, IsDuplicate: true, IsUnopened: true,
		InGitRepo: true, RecentSiblingBurst: true,
	}
	require.Equal(t, 0.0, Score(f), "heavy negative weights must clamp the score to 0, not go negative")
}

func TestScore_ClampsToOne(t *testing.T) {
	f := Factors{SizeBytes: maxSizeBytes, AgeDays: maxAgeDays, IsDuplicate: true, IsUnopened: true}
	require.InDelta(t, 1.0, Score(f), 1e-9)
}

func TestConfidence_BoundsAndDirection(t *testing.T) {
	base := Confidence(Factors{})
	require.Equal(t, 0.5, base)

	withDupe := Confidence(Factors{IsDuplicate: true})
	require.Greater(t, withDupe, base)

	withGit := Confidence(Factors{InGitRepo: true})
	require.Less(t, withGit, base)

	allNegative := Confidence(Factors{InGitRepo: true, HasKeywordFlag: true, RecentSiblingBurst: true})
	require.InDelta(t, 0.05, allNegative, 0.001)
}

func TestBuckets_Screenshot(t *testing.T) {
	f := types.File{Path: "/home/u/Pictures/screenshot_2026.png", ParentDir: "/home/u/Pictures"}
	require.Contains(t, Buckets(f, 1, Context{}), BucketScreenshot)

	f2 := types.File{Path: "/home/u/Screenshots/img.png", ParentDir: "/home/u/Screenshots"}
	require.Contains(t, Buckets(f2, 1, Context{}), BucketScreenshot)
}

func TestBuckets_BigDownloadRequiresUnopenedOrOld(t *testing.T) {
	big := types.File{Path: "/home/u/Downloads/movie.mp4", ParentDir: "/home/u/Downloads", SizeBytes: bigDownloadSize + 1}
	require.Contains(t, Buckets(big, 5, Context{}), BucketBigDownload, "never-opened big downloads qualify regardless of age")

	opened := time.Now()
	bigOpenedRecent := big
	bigOpenedRecent.LastOpenedAt = &opened
	require.NotContains(t, Buckets(bigOpenedRecent, 5, Context{}), BucketBigDownload)

	bigOpenedOld := big
	bigOpenedOld.LastOpenedAt = &opened
	require.Contains(t, Buckets(bigOpenedOld, bigDownloadAge+1, Context{}), BucketBigDownload)
}

func TestBuckets_OldDesktopRequiresAgeThreshold(t *testing.T) {
	f := types.File{Path: "/home/u/Desktop/notes.txt", ParentDir: "/home/u/Desktop"}
	require.NotContains(t, Buckets(f, oldDesktopAge, Context{}), BucketOldDesktop)
	require.Contains(t, Buckets(f, oldDesktopAge+1, Context{}), BucketOldDesktop)
}

func TestBuckets_DuplicateRequiresMembershipAndSizeCeiling(t *testing.T) {
	f := types.File{Path: "/a/f.bin", ParentDir: "/a", FullDigest: "x", SizeBytes: 10}
	ctx := Context{DuplicateDigests: map[string]bool{"x": true}}
	require.Contains(t, Buckets(f, 1, ctx), BucketDuplicate)

	tooBig := f
	tooBig.SizeBytes = maxSizeBytes + 1
	require.NotContains(t, Buckets(tooBig, 1, ctx), BucketDuplicate)

	notInCtx := types.File{Path: "/a/g.bin", ParentDir: "/a", FullDigest: "y", SizeBytes: 10}
	require.NotContains(t, Buckets(notInCtx, 1, ctx), BucketDuplicate)
}

func TestExtractFactors_KeywordFlagIsCaseInsensitive(t *testing.T) {
	f := types.File{Path: "/home/u/Projects/CURRENT-build/out.bin"}
	factors := ExtractFactors(f, 1, Context{})
	require.True(t, factors.HasKeywordFlag)
}

func TestDedupeByFileID_KeepsOneEntryPerFile(t *testing.T) {
	cands := []Candidate{
		{FileID: 1, Bucket: BucketScreenshot, Score: 0.5},
		{FileID: 1, Bucket: BucketOldDesktop, Score: 0.5},
		{FileID: 2, Bucket: BucketDuplicate, Score: 0.9},
	}

	out := dedupeByFileID(cands)
	require.Len(t, out, 2)

	seen := make(map[int64]Bucket, len(out))
	for _, c := range out {
		seen[c.FileID] = c.Bucket
	}
	require.Equal(t, BucketScreenshot, seen[1], "a tie between buckets with equal score breaks toward bucketPriority")
	require.Equal(t, BucketDuplicate, seen[2])
}

func TestDedupeByFileID_HigherScoreWinsRegardlessOfBucketOrder(t *testing.T) {
	cands := []Candidate{
		{FileID: 7, Bucket: BucketDuplicate, Score: 0.3},
		{FileID: 7, Bucket: BucketScreenshot, Score: 0.8},
	}

	out := dedupeByFileID(cands)
	require.Len(t, out, 1)
	require.Equal(t, BucketScreenshot, out[0].Bucket)
	require.Equal(t, 0.8, out[0].Score)
}

func TestSelect_DedupesFileThatMatchesMultipleBuckets(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -30)
	dir := filepath.Join(t.TempDir(), "Desktop")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "Screenshot 2024-05-01.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err = st.UpsertFile(ctx, store.UpsertFileInput{
		Path: path, ParentDir: dir, SizeBytes: 10, Modified: &old,
	})
	require.NoError(t, err)

	candidates, err := Select(ctx, st, nil, DefaultGlobalCap)
	require.NoError(t, err)

	seen := make(map[int64]int)
	for _, c := range candidates {
		seen[c.FileID]++
	}
	for id, count := range seen {
		require.Equal(t, 1, count, "file %d appears in the candidate list %d times, want 1", id, count)
	}
	require.Len(t, candidates, 1, "a file matching both screenshot and old_desktop must yield exactly one candidate")
}

func TestActiveProjectDetector_DetectsGitRepoAncestor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	sub := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	d := NewActiveProjectDetector()
	files := []types.File{{ParentDir: sub}}
	gitDirs, _ := d.Detect(files, time.Now())
	require.True(t, gitDirs[sub])
}

func TestActiveProjectDetector_DetectsRecentSiblingBurst(t *testing.T) {
	now := time.Now()
	recent := now.Add(-time.Hour)
	old := now.Add(-240 * time.Hour)

	dir := "/home/u/Projects/active"
	files := []types.File{
		{ParentDir: dir, ModifiedAt: &recent},
		{ParentDir: dir, ModifiedAt: &recent},
		{ParentDir: dir, ModifiedAt: &recent},
		{ParentDir: "/home/u/Projects/stale", ModifiedAt: &old},
	}

	d := NewActiveProjectDetector()
	_, burstDirs := d.Detect(files, now)
	require.True(t, burstDirs[dir])
	require.False(t, burstDirs["/home/u/Projects/stale"])
}
