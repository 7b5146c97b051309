//go:build !linux && !freebsd && !darwin && !windows

package snapshot

import "os"

// flushFile forces written snapshot data to stable storage.
func flushFile(f *os.File) error {
	return f.Sync()
}
