package snapshot

import (
	"github.com/heapkit/heapkit/gc"
)

// CellCount returns the number of recorded cells.
func (s *Snapshot) CellCount() int {
	return len(s.Cells)
}

// LiveBytes returns the arena bytes the recorded cells occupy.
func (s *Snapshot) LiveBytes() int64 {
	var total int64
	for _, c := range s.Cells {
		total += int64(c.Size)
	}
	return total
}

// TypeCounts returns the number of cells per Go type name.
func (s *Snapshot) TypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, c := range s.Cells {
		counts[c.TypeName]++
	}
	return counts
}

// RootsByKind returns the number of roots per provenance kind.
func (s *Snapshot) RootsByKind() map[gc.RootKind]int {
	counts := make(map[gc.RootKind]int)
	for _, r := range s.Roots {
		counts[r.Kind]++
	}
	return counts
}

// Lookup returns the record for the cell at addr.
func (s *Snapshot) Lookup(addr gc.Address) (CellRecord, bool) {
	if s.index == nil {
		s.index = make(map[gc.Address]int, len(s.Cells))
		for i, c := range s.Cells {
			s.index[c.Address] = i
		}
	}
	i, ok := s.index[addr]
	if !ok {
		return CellRecord{}, false
	}
	return s.Cells[i], true
}

// Reachable reports whether the cell at addr is reachable from the
// recorded roots.
func (s *Snapshot) Reachable(addr gc.Address) bool {
	_, ok := s.reachableSet()[addr]
	return ok
}

// UnreachableCells returns the recorded cells no root reaches, in
// address order. In a healthy capture these are cells allocated after
// the last cycle and not yet rooted; anything older is a leak candidate
// kept alive only until the next collection.
func (s *Snapshot) UnreachableCells() []CellRecord {
	reach := s.reachableSet()
	var out []CellRecord
	for _, c := range s.Cells {
		if _, ok := reach[c.Address]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// reachableSet walks the recorded graph from the roots.
func (s *Snapshot) reachableSet() map[gc.Address]struct{} {
	reach := make(map[gc.Address]struct{}, len(s.Cells))
	var stack []gc.Address
	for _, r := range s.Roots {
		if _, ok := reach[r.Address]; ok {
			continue
		}
		reach[r.Address] = struct{}{}
		stack = append(stack, r.Address)
	}
	for len(stack) > 0 {
		addr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c, ok := s.Lookup(addr)
		if !ok {
			continue
		}
		for _, e := range c.Edges {
			if _, ok := reach[e]; ok {
				continue
			}
			reach[e] = struct{}{}
			stack = append(stack, e)
		}
	}
	return reach
}
