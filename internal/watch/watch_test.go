package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	require.Equal(t, "create", classify(fsnotify.Create))
	require.Equal(t, "modify", classify(fsnotify.Write))
	require.Equal(t, "remove", classify(fsnotify.Remove))
	require.Equal(t, "generic", classify(fsnotify.Rename))
	require.Equal(t, "", classify(fsnotify.Chmod))
}

func TestHasPrefixDir(t *testing.T) {
	require.True(t, hasPrefixDir(filepath.Join("/root", "a", "b.txt"), "/root"))
	require.True(t, hasPrefixDir("/root", "/root"))
	require.False(t, hasPrefixDir("/other/b.txt", "/root"))
}

func TestOwnerRoot_PicksMostSpecificRegisteredRoot(t *testing.T) {
	w := &Watcher{roots: []string{"/a", "/a/b"}}

	require.Equal(t, "/a/b", w.ownerRoot("/a/b/file.txt"), "the deeper registered root must win")
	require.Equal(t, "/a", w.ownerRoot("/a/other/file.txt"))
	require.Equal(t, "", w.ownerRoot("/elsewhere/file.txt"))
}

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestAddRoot_RegistersSubdirsAndSkipsExcluded(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))

	w := newTestWatcher(t)
	require.NoError(t, w.AddRoot(root))

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Equal(t, root, w.dirRoots[root])
	require.Equal(t, root, w.dirRoots[filepath.Join(root, "sub")])
	require.NotContains(t, w.dirRoots, filepath.Join(root, "node_modules"), "excluded directories must not be registered for watching")
}

func TestDebounce_ReusesTimerForSameRoot(t *testing.T) {
	w := newTestWatcher(t)
	w.coord = nil

	w.debounce("/root-a")
	w.mu.Lock()
	require.Len(t, w.timers, 1)
	w.mu.Unlock()

	w.debounce("/root-a")
	w.mu.Lock()
	require.Len(t, w.timers, 1, "debouncing the same root again must reset the existing timer, not add a second one")
	w.mu.Unlock()

	w.debounce("/root-b")
	w.mu.Lock()
	require.Len(t, w.timers, 2)
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.mu.Unlock()
}
