package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalk_SkipsExcludedDirsAndFiles(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".DS_Store"), []byte("x"), 0o644))

	res, err := Walk(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, r := range res.Records {
		paths = append(paths, r.Path)
	}
	require.Contains(t, paths, filepath.Join(root, "keep.txt"))
	require.NotContains(t, paths, filepath.Join(root, "node_modules", "pkg.js"))
	require.NotContains(t, paths, filepath.Join(root, ".DS_Store"))
}

func TestWalk_NeverFollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("content"), 0o644))

	link := filepath.Join(root, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	res, err := Walk(context.Background(), root)
	require.NoError(t, err)

	for _, r := range res.Records {
		require.NotEqual(t, link, r.Path, "symlinked files must never be yielded")
	}
}

func TestWalk_RecordsMetadata(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))

	res, err := Walk(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	require.Equal(t, path, rec.Path)
	require.Equal(t, root, rec.Parent)
	require.Equal(t, int64(len("binary")), rec.Size)
	require.Equal(t, "image/jpeg", rec.MediaType)
	require.NotNil(t, rec.Modified)
	require.True(t, res.SeenPaths[path])
}

func TestWalk_ToleratesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does-not-exist")
	res, err := Walk(context.Background(), root)
	require.NoError(t, err, "a missing root is reported via Skipped/ErrMessages, not a hard error")
	require.Empty(t, res.Records)
	require.NotZero(t, res.Skipped)
}

func TestMediaType_UnknownExtension(t *testing.T) {
	require.Equal(t, "", MediaType("file.unknownext"))
	require.Equal(t, "text/plain", MediaType("FILE.TXT"))
}

func TestIsSkippedDir(t *testing.T) {
	require.True(t, IsSkippedDir(".git"))
	require.False(t, IsSkippedDir("src"))
}
