package snapshot

import (
	"fmt"
	"os"

	"github.com/heapkit/heapkit/internal/mmfile"
)

// WriteFile serializes the snapshot to path, replacing any existing
// file, and syncs it to stable storage before returning.
func (s *Snapshot) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", path, err)
	}
	if err := s.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	if err := flushFile(f); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("snapshot: close %s: %w", path, err)
	}
	return nil
}

// Open parses the snapshot file at path. The file is memory-mapped for
// parsing and unmapped before return; the snapshot owns its data.
func Open(path string) (*Snapshot, error) {
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	s, perr := parse(data)
	if uerr := unmap(); uerr != nil && perr == nil {
		return nil, fmt.Errorf("snapshot: unmap %s: %w", path, uerr)
	}
	if perr != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", path, perr)
	}
	return s, nil
}
