//go:build linux

package sorter

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// creationTime returns the inode change time, the closest widely available
// analogue to a creation timestamp on Linux filesystems. For freshly
// downloaded files it matches the arrival time. Falls back to the
// modification time when the stat fails.
func creationTime(path string, info os.FileInfo) time.Time {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return info.ModTime()
	}
	return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
}
