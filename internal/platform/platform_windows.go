//go:build windows

package platform

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

func trashDirFor(home string) string {
	// The Windows Explorer Recycle Bin is not a plain directory files can be
	// moved into directly; the closest analogue reachable without COM
	// shell-API bindings is the per-user local app data state directory
	// Explorer keeps its recycle metadata under.
	if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
		return filepath.Join(appData, "Microsoft", "Windows", "RecycleBin")
	}
	return ensureDirName(home, "AppData/Local/Microsoft/Windows/RecycleBin")
}

func freeSpaceFor(path string) (uint64, error) {
	var freeBytes, totalBytes, totalFree uint64
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytes, &totalBytes, &totalFree); err != nil {
		return 0, err
	}
	return freeBytes, nil
}

func syncFileFor(f *os.File) error {
	// Windows has no meaningful cross-volume fsync equivalent here; the OS
	// page cache is flushed on Close, per spec.md's cross-volume fsync
	// open question.
	return nil
}
