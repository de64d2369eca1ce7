//go:build !unix && !windows

package platform

import "os"

func trashDirFor(home string) string {
	return ensureDirName(home, ".trash")
}

func freeSpaceFor(path string) (uint64, error) {
	// No portable free-space query without a platform syscall binding;
	// report a large sentinel so preflight checks don't spuriously fail on
	// an unsupported platform rather than silently skipping the check.
	return 1 << 62, nil
}

func syncFileFor(f *os.File) error {
	return f.Sync()
}
