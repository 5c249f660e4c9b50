//go:build !linux

package sorter

import (
	"os"
	"time"
)

// creationTime falls back to the modification time on platforms without a
// portable creation timestamp.
func creationTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}
