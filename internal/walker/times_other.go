//go:build !unix && !windows

package walker

import (
	"io/fs"
	"time"
)

// accessTime has no portable equivalent outside the Windows-specific
// syscall.Win32FileAttributeData path; left absent rather than approximated.
func accessTime(info fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}

func createTime(info fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
