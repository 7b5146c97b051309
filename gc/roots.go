package gc

import "sort"

// RootKind identifies how a root entered the root set.
type RootKind int

const (
	RootHandle RootKind = iota
	RootMarkedVector
	RootConservativeVector
	RootEmbedder
)

// String returns the lowercase name used in logs and reports.
func (k RootKind) String() string {
	switch k {
	case RootHandle:
		return "handle"
	case RootMarkedVector:
		return "marked-vector"
	case RootConservativeVector:
		return "conservative-vector"
	case RootEmbedder:
		return "embedder"
	default:
		return "unknown"
	}
}

// rootSource is what the heap's vector registries hold: anything that can
// contribute roots when a cycle begins.
type rootSource interface {
	gatherRoots(rs *RootSet)
}

// Root records one root cell and where it came from. File and Line are
// set for handle roots only.
type Root struct {
	Cell Cell
	Kind RootKind
	File string
	Line int
}

// RootSet accumulates the roots of one collection cycle or one read-only
// traversal. Roots are deduplicated by cell address; the first
// contribution for a cell wins, so handle provenance (which carries a
// creation site) is not clobbered by later bulk sources.
type RootSet struct {
	heap  *Heap
	roots map[Address]Root
}

func newRootSet(h *Heap) *RootSet {
	return &RootSet{heap: h, roots: make(map[Address]Root)}
}

// AddCell contributes a direct cell root. Nil and no-longer-live cells
// are ignored (a handle can outlive its target across CollectAllGarbage);
// cells owned by another heap are a contract violation.
func (rs *RootSet) AddCell(c Cell, kind RootKind) {
	if IsNilCell(c) {
		return
	}
	b := c.base()
	if b.heap != rs.heap {
		panic("gc: cell rooted on a foreign heap")
	}
	if !b.live {
		return
	}
	if _, ok := rs.roots[b.addr]; ok {
		return
	}
	rs.roots[b.addr] = Root{Cell: c, Kind: kind}
}

// AddValue contributes a tagged value: a root results only when the value
// holds a cell.
func (rs *RootSet) AddValue(v Value, kind RootKind) {
	if !v.IsCell() {
		return
	}
	if c := rs.heap.cellAt(v.CellAddress()); c != nil {
		rs.AddCell(c, kind)
	}
}

// addWord contributes one conservatively interpreted machine word.
func (rs *RootSet) addWord(w uint64, kind RootKind) {
	if c := rs.heap.CellFromWord(w); c != nil {
		rs.AddCell(c, kind)
	}
}

// addHandle contributes a handle root, keeping its creation site.
func (rs *RootSet) addHandle(impl *handleImpl) {
	b := impl.cell.base()
	if !b.live {
		return
	}
	if _, ok := rs.roots[b.addr]; ok {
		return
	}
	rs.roots[b.addr] = Root{Cell: impl.cell, Kind: RootHandle, File: impl.file, Line: impl.line}
}

// Len reports the number of distinct root cells gathered so far.
func (rs *RootSet) Len() int {
	return len(rs.roots)
}

// each visits the gathered roots in unspecified order.
func (rs *RootSet) each(f func(Root)) {
	for _, r := range rs.roots {
		f(r)
	}
}

// gatherRoots enumerates every registered root source into rs: handle
// targets, marked vector elements, conservative vector words, then the
// embedder callback.
func (h *Heap) gatherRoots(rs *RootSet) {
	for impl := range h.handles {
		rs.addHandle(impl)
	}
	for src := range h.markedVectors {
		src.gatherRoots(rs)
	}
	for src := range h.conservativeVectors {
		src.gatherRoots(rs)
	}
	if h.embedderRoots != nil {
		h.embedderRoots(rs)
	}
}

// RootInfo describes one root for traversal callbacks.
type RootInfo struct {
	Address Address
	Kind    RootKind
	File    string
	Line    int
}

// EachRoot gathers the current root set and reports it in address order,
// stopping early if f returns false. Like EachCell, it is a read-only
// traversal for tooling and must not run during a cycle.
func (h *Heap) EachRoot(f func(RootInfo) bool) {
	rs := newRootSet(h)
	h.gatherRoots(rs)

	addrs := make([]Address, 0, len(rs.roots))
	for addr := range rs.roots {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	for _, addr := range addrs {
		r := rs.roots[addr]
		if !f(RootInfo{Address: addr, Kind: r.Kind, File: r.File, Line: r.Line}) {
			return
		}
	}
}
