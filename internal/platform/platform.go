// Package platform isolates the three OS-specific concerns spec.md calls
// out: trash directory location, free-space queries, and fsync-on-copy
// availability, so no other package carries an OS switch. Grounded on
// original_source/src-tauri/src/ops/{archive,delete}.rs's #[cfg(unix)]/
// #[cfg(windows)] splits and on mutagen-io-mutagen's/go-git's use of
// golang.org/x/sys for low-level platform syscalls.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// TrashDir resolves the OS-native trash directory per spec.md §6:
//   - windows: a subfolder under the user profile's Explorer state dir.
//   - darwin: ~/.Trash
//   - linux/other unix: ~/.local/share/Trash/files
//   - anything else: ~/.trash
func TrashDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return trashDirFor(home), nil
}

// FreeSpace reports bytes available to the current user on the volume
// containing path.
func FreeSpace(path string) (uint64, error) {
	return freeSpaceFor(path)
}

// SyncFile flushes a file's content to stable storage where the platform
// makes that meaningful. On platforms without a useful fsync equivalent
// (Windows relies on the OS page-cache flush at Close) this is a no-op,
// per spec.md §9's "cross-volume fsync" open question.
func SyncFile(f *os.File) error {
	return syncFileFor(f)
}

func ensureDirName(home, rel string) string {
	return filepath.Join(home, filepath.FromSlash(rel))
}
