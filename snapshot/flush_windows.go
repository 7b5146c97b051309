//go:build windows

package snapshot

import (
	"os"

	"golang.org/x/sys/windows"
)

// flushFile forces written snapshot data to stable storage.
func flushFile(f *os.File) error {
	return windows.FlushFileBuffers(windows.Handle(f.Fd()))
}
