//go:build darwin

package snapshot

import (
	"os"

	"golang.org/x/sys/unix"
)

// flushFile forces written snapshot data to stable storage. macOS fsync
// stops at the drive cache; F_FULLFSYNC pushes through to the platter.
func flushFile(f *os.File) error {
	_, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0)
	return err
}
