//go:build unix

package walker

import (
	"io/fs"
	"syscall"
	"time"
)

// accessTime extracts the access time from a unix Stat_t, when available.
func accessTime(info fs.FileInfo) (time.Time, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(st.Atim.Sec, st.Atim.Nsec), true
}

// createTime has no portable unix equivalent (ext4/xfs ctime is a change
// time, not a creation time); absent rather than misleading.
func createTime(info fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
