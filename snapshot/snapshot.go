// Package snapshot captures an immutable record of a heap's object graph
// for offline inspection: every live cell with its edges, every root with
// its provenance, serialized to a compact binary file that tooling can
// load without the owning runtime.
//
// Capturing walks the heap's read-only traversal surface, so it must run
// between collection cycles on the goroutine driving the heap. Everything
// after capture (Write, Read, queries) is plain data with no tie to the
// owning heap, though a Snapshot is not for concurrent use.
package snapshot

import (
	"fmt"
	"time"

	"github.com/heapkit/heapkit/gc"
)

// CellRecord describes one live cell.
type CellRecord struct {
	Address  gc.Address
	Size     int    // size class width in bytes
	TypeName string // Go type of the cell, e.g. "*vm.Object"
	Edges    []gc.Address
}

// RootRecord describes one root. File and Line are set for handle roots.
type RootRecord struct {
	Address gc.Address
	Kind    gc.RootKind
	File    string
	Line    int
}

// Snapshot is a point-in-time record of a heap's cells and roots. Cells
// and roots are in ascending address order.
type Snapshot struct {
	CapturedAt time.Time
	Cells      []CellRecord
	Roots      []RootRecord

	index map[gc.Address]int
}

// Capture records h's current live cells, their edges, and its root set.
func Capture(h *gc.Heap) *Snapshot {
	s := &Snapshot{CapturedAt: time.Now()}

	rec := &edgeRecorder{heap: h}
	h.EachCell(func(ci gc.CellInfo) bool {
		rec.reset()
		ci.Cell.VisitEdges(rec)
		s.Cells = append(s.Cells, CellRecord{
			Address:  ci.Address,
			Size:     ci.Size,
			TypeName: fmt.Sprintf("%T", ci.Cell),
			Edges:    rec.take(),
		})
		return true
	})

	h.EachRoot(func(ri gc.RootInfo) bool {
		s.Roots = append(s.Roots, RootRecord{
			Address: ri.Address,
			Kind:    ri.Kind,
			File:    ri.File,
			Line:    ri.Line,
		})
		return true
	})

	return s
}

// edgeRecorder collects the distinct cells one cell's VisitEdges reports,
// resolving conservative words exactly like the collector would.
type edgeRecorder struct {
	heap  *gc.Heap
	edges []gc.Address
	seen  map[gc.Address]struct{}
}

func (r *edgeRecorder) reset() {
	r.edges = nil
	r.seen = nil
}

func (r *edgeRecorder) take() []gc.Address {
	return r.edges
}

func (r *edgeRecorder) add(addr gc.Address) {
	if r.seen == nil {
		r.seen = make(map[gc.Address]struct{})
	}
	if _, ok := r.seen[addr]; ok {
		return
	}
	r.seen[addr] = struct{}{}
	r.edges = append(r.edges, addr)
}

func (r *edgeRecorder) Visit(c gc.Cell) {
	if gc.IsNilCell(c) {
		return
	}
	r.add(c.Address())
}

func (r *edgeRecorder) VisitValue(v gc.Value) {
	if !v.IsCell() {
		return
	}
	if c := v.Cell(r.heap); c != nil {
		r.add(c.Address())
	}
}

func (r *edgeRecorder) VisitPossibleValues(words []uint64) {
	for _, w := range words {
		if c := r.heap.CellFromWord(w); c != nil {
			r.add(c.Address())
		}
	}
}
