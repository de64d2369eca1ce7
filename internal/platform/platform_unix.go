//go:build unix

package platform

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

func trashDirFor(home string) string {
	if runtime.GOOS == "darwin" {
		return ensureDirName(home, ".Trash")
	}
	return ensureDirName(home, ".local/share/Trash/files")
}

func freeSpaceFor(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

func syncFileFor(f *os.File) error {
	return f.Sync()
}
