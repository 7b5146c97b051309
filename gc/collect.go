package gc

import "time"

// collectionKind selects what a cycle considers a root. Ordering matters:
// a pending everything-collection outranks a pending normal one.
type collectionKind int

const (
	collectNone collectionKind = iota
	collectNormal
	collectEverything
)

// CollectGarbage runs a full synchronous mark-and-sweep cycle: every cell
// unreachable from the registered roots is finalized and destroyed, and
// every weak container is purged of dead entries. If a deferral is
// active, the cycle is postponed until the last undefer.
func (h *Heap) CollectGarbage() {
	h.requestCollection(collectNormal)
}

// CollectAllGarbage runs a teardown cycle that ignores all roots and
// reclaims every cell. Weak containers observe the whole population
// dying. Intended for shutting an agent down, not for steady state.
func (h *Heap) CollectAllGarbage() {
	h.requestCollection(collectEverything)
}

func (h *Heap) requestCollection(kind collectionKind) {
	if h.state != heapIdle {
		panic("gc: collection re-entered")
	}
	if h.deferDepth > 0 {
		if kind > h.pending {
			h.pending = kind
		}
		return
	}
	h.collect(kind)
}

func (h *Heap) collect(kind collectionKind) {
	start := time.Now()
	var cycle CycleStats

	// The weak containers consulted this cycle are frozen now; one that
	// deregisters mid-cycle is skipped by the re-check below.
	weak := make([]WeakContainer, 0, len(h.weakContainers))
	for w := range h.weakContainers {
		weak = append(weak, w)
	}

	// Mark phase.
	h.state = heapMarking
	rs := newRootSet(h)
	if kind == collectNormal {
		h.gatherRoots(rs)
	}
	cycle.RootsGathered = rs.Len()

	m := &markVisitor{heap: h}
	rs.each(func(r Root) { m.Visit(r.Cell) })
	m.drain()
	cycle.CellsMarked = m.marked
	cycle.MarkDuration = time.Since(start)

	// Weak phase: each container frozen above is told exactly once,
	// after marking and before any dead cell is touched.
	weakStart := time.Now()
	h.state = heapSweeping
	sw := Sweeper{heap: h}
	for _, w := range weak {
		if !w.weakBase().registered {
			continue // deregistered since the cycle began
		}
		w.RemoveDeadCells(sw)
	}
	cycle.WeakDuration = time.Since(weakStart)

	// Sweep phase, two passes: finalize the entire dead set first, so
	// finalizers can still inspect other dying cells, then destroy.
	sweepStart := time.Now()
	h.eachBlock(func(blk *block) {
		for _, c := range blk.cells {
			if c == nil || c.base().marked {
				continue
			}
			if f, ok := c.(Finalizer); ok {
				f.Finalize()
			}
		}
	})
	h.eachBlock(func(blk *block) {
		freed := false
		for slot, c := range blk.cells {
			if c == nil {
				continue
			}
			b := c.base()
			if b.marked {
				b.marked = false
				continue
			}
			b.live = false
			blk.clear(uint32(slot))
			freed = true
			h.liveCells--
			h.liveBytes -= int64(blk.cellSize)
			cycle.CellsSwept++
			cycle.BytesSwept += int64(blk.cellSize)
		}
		if freed {
			blk.owner.noteFreed(blk)
		}
	})
	cycle.SweepDuration = time.Since(sweepStart)
	cycle.TotalDuration = time.Since(start)

	h.state = heapIdle
	h.allocsSinceGC = 0
	h.totalCollections++
	h.totalCellsSwept += int64(cycle.CellsSwept)
	h.lastCycle = cycle

	h.log.Debug("collection cycle complete",
		"roots", cycle.RootsGathered,
		"marked", cycle.CellsMarked,
		"swept", cycle.CellsSwept,
		"live", h.liveCells,
		"mark", cycle.MarkDuration,
		"weak", cycle.WeakDuration,
		"sweep", cycle.SweepDuration)
}

// markVisitor walks the object graph breadth-first from the roots,
// setting mark bits. Newly marked cells go on the worklist; drain pops
// them and asks each for its edges.
type markVisitor struct {
	heap     *Heap
	worklist []Cell
	marked   int
}

func (m *markVisitor) drain() {
	for len(m.worklist) > 0 {
		n := len(m.worklist)
		c := m.worklist[n-1]
		m.worklist = m.worklist[:n-1]
		c.VisitEdges(m)
	}
}

func (m *markVisitor) Visit(c Cell) {
	if IsNilCell(c) {
		return
	}
	b := c.base()
	if b.heap != m.heap {
		panic("gc: edge to a cell of a foreign heap")
	}
	if b.marked || !b.live {
		return
	}
	b.marked = true
	m.marked++
	m.worklist = append(m.worklist, c)
}

func (m *markVisitor) VisitValue(v Value) {
	if !v.IsCell() {
		return
	}
	if c := m.heap.cellAt(v.CellAddress()); c != nil {
		m.Visit(c)
	}
}

func (m *markVisitor) VisitPossibleValues(words []uint64) {
	for _, w := range words {
		if c := m.heap.CellFromWord(w); c != nil {
			m.Visit(c)
		}
	}
}

// Sweeper is the capability a collection cycle hands to RemoveDeadCells.
// Only a running cycle constructs a usable one; the zero value panics on
// first use.
type Sweeper struct {
	heap *Heap
}

// IsDead reports whether c failed to be marked in the cycle that issued
// this sweeper, i.e. is about to be destroyed.
func (s Sweeper) IsDead(c Cell) bool {
	if s.heap == nil {
		panic("gc: sweeper used outside a collection cycle")
	}
	if IsNilCell(c) {
		return false
	}
	b := c.base()
	if b.heap != s.heap {
		panic("gc: sweeper asked about a cell of a foreign heap")
	}
	return !b.marked
}
