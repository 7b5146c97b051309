package gc

import (
	"log/slog"
	"sort"
)

// defaultCollectionThreshold is how many allocations a heap accepts
// between automatic collection cycles when the caller does not configure
// a threshold.
const defaultCollectionThreshold = 10_000

// heapState tracks where in the collection cycle a heap is. Mutating the
// root registries or allocating is legal only while idle.
type heapState int

const (
	heapIdle heapState = iota
	heapMarking
	heapSweeping
)

// Options controls heap construction.
type Options struct {
	// SizeClasses selects the cell size class strategy.
	// If nil, DefaultConfig is used.
	SizeClasses *SizeClassConfig

	// Logger receives per-cycle collection reports at debug level.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// CollectionThreshold is the number of allocations between automatic
	// collection cycles. Zero means the default (10000); negative
	// disables automatic collection entirely.
	CollectionThreshold int

	// CollectOnEveryAllocation runs a full cycle before every single
	// allocation. Far too slow for production; intended for tests that
	// hunt rooting bugs.
	CollectOnEveryAllocation bool

	// EmbedderRoots, when non-nil, is invoked during root gathering so
	// the hosting runtime can contribute roots the heap cannot see
	// (execution stacks, VM registers, caches).
	EmbedderRoots func(*RootSet)
}

// Heap owns a population of cells and the registries of everything that
// can root them. A heap is driven by exactly one goroutine; there is no
// internal locking. Multiple independent heaps may coexist in a process.
type Heap struct {
	log *slog.Logger

	sizeTable      *sizeClassTable
	allocators     []*cellAllocator
	hugeAllocators map[int]*cellAllocator

	// blocks indexes every blockSize span of the arena, in address
	// order. A block wider than blockSize occupies consecutive entries,
	// so address-to-block resolution stays O(1) arithmetic.
	blocks   []*block
	nextBase Address

	handles             map[*handleImpl]struct{}
	markedVectors       map[rootSource]struct{}
	conservativeVectors map[rootSource]struct{}
	weakContainers      map[WeakContainer]struct{}
	embedderRoots       func(*RootSet)

	state          heapState
	deferDepth     int
	pending        collectionKind
	collectOnAlloc bool
	threshold      int
	allocsSinceGC  int

	liveCells        int
	liveBytes        int64
	totalAllocations int64
	totalCollections int64
	totalCellsSwept  int64
	lastCycle        CycleStats
}

// New creates a heap with default options.
func New() *Heap {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a heap configured by opts.
func NewWithOptions(opts Options) *Heap {
	config := DefaultConfig
	if opts.SizeClasses != nil {
		config = *opts.SizeClasses
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(nopHandler{})
	}

	threshold := opts.CollectionThreshold
	switch {
	case threshold == 0:
		threshold = defaultCollectionThreshold
	case threshold < 0:
		threshold = 0 // automatic collection disabled
	}

	table := newSizeClassTable(config)
	h := &Heap{
		log:                 log,
		sizeTable:           table,
		allocators:          make([]*cellAllocator, table.NumClasses()),
		hugeAllocators:      make(map[int]*cellAllocator),
		nextBase:            arenaBase,
		handles:             make(map[*handleImpl]struct{}),
		markedVectors:       make(map[rootSource]struct{}),
		conservativeVectors: make(map[rootSource]struct{}),
		weakContainers:      make(map[WeakContainer]struct{}),
		embedderRoots:       opts.EmbedderRoots,
		collectOnAlloc:      opts.CollectOnEveryAllocation,
		threshold:           threshold,
	}
	for i := range h.allocators {
		h.allocators[i] = newCellAllocator(table.cellSizes[i])
	}
	return h
}

// DeferGC postpones automatic and requested collection until the returned
// undefer function runs. Deferrals nest; a collection that came due while
// any deferral was active runs when the last one ends. Calling undefer
// more than once is harmless.
func (h *Heap) DeferGC() (undefer func()) {
	h.deferDepth++
	done := false
	return func() {
		if done {
			return
		}
		done = true
		h.deferDepth--
		if h.deferDepth == 0 && h.pending != collectNone {
			kind := h.pending
			h.pending = collectNone
			h.collect(kind)
		}
	}
}

// beforeAllocation runs the pressure check that may trigger a cycle. It
// runs before the new cell exists, so a triggered cycle can never reap
// the allocation it precedes.
func (h *Heap) beforeAllocation() {
	if h.state != heapIdle {
		panic("gc: allocation during collection")
	}
	if h.collectOnAlloc || (h.threshold > 0 && h.allocsSinceGC >= h.threshold) {
		h.requestCollection(collectNormal)
	}
}

// adopt places a freshly constructed cell into the arena, giving it an
// address, an owner, and a slot that keeps it alive until swept.
func (h *Heap) adopt(c Cell, size int) {
	var blk *block
	var slot uint32
	if class := h.sizeTable.getSizeClass(size); class < h.sizeTable.NumClasses() {
		blk, slot = h.allocators[class].allocate(h)
	} else {
		blk, slot = h.allocateHuge(size)
	}
	blk.install(slot, c, h)

	h.liveCells++
	h.liveBytes += int64(blk.cellSize)
	h.totalAllocations++
	h.allocsSinceGC++
}

// allocateHuge serves cells too large for any size class from dedicated
// blocks, one allocator per exact cell size so freed blocks are reused.
func (h *Heap) allocateHuge(size int) (*block, uint32) {
	cellSize := alignCellSize(size)
	a := h.hugeAllocators[cellSize]
	if a == nil {
		a = newCellAllocator(cellSize)
		h.hugeAllocators[cellSize] = a
	}
	return a.allocate(h)
}

// addBlock claims the next span of the arena for a new block.
func (h *Heap) addBlock(cellSize int) *block {
	blk := newBlock(h.nextBase, cellSize)
	if h.nextBase+Address(blk.span) > arenaLimit {
		panic("gc: virtual address space exhausted")
	}
	for i := 0; i < blk.span/blockSize; i++ {
		h.blocks = append(h.blocks, blk)
	}
	h.nextBase += Address(blk.span)
	return blk
}

// eachBlock visits every block exactly once, in address order. Wide
// blocks occupy several index entries; only the first is their own.
func (h *Heap) eachBlock(f func(*block)) {
	for i, blk := range h.blocks {
		if blk.base != arenaBase+Address(i)*blockSize {
			continue
		}
		f(blk)
	}
}

// blockFor resolves an address to the block whose span contains it.
func (h *Heap) blockFor(addr Address) *block {
	if addr < arenaBase || addr >= h.nextBase {
		return nil
	}
	return h.blocks[uint64(addr-arenaBase)/blockSize]
}

// cellAt returns the live cell whose head is exactly addr, or nil. Exact
// references (boxed cell values, handle targets) always carry head
// addresses.
func (h *Heap) cellAt(addr Address) Cell {
	blk := h.blockFor(addr)
	if blk == nil {
		return nil
	}
	if uint64(addr-blk.base)%uint64(blk.cellSize) != 0 {
		return nil
	}
	return blk.cellAt(addr)
}

// cellFromPossibleAddress resolves a conservative guess: any address
// within a live cell's extent, head or interior, yields that cell.
func (h *Heap) cellFromPossibleAddress(addr Address) Cell {
	blk := h.blockFor(addr)
	if blk == nil {
		return nil
	}
	return blk.cellAt(addr)
}

// CellFromWord interprets one raw machine word the way conservative
// scanning does: a NaN-boxed cell payload resolves exactly, anything else
// is tried as a head or interior address. Boxed cell values and raw
// addresses occupy disjoint bit ranges (tags sit above 2^48, addresses
// below), so the two decodings cannot shadow each other. Exposed so
// tooling resolves words through the same path the collector does.
func (h *Heap) CellFromWord(w uint64) Cell {
	if v := Value(w); v.IsCell() {
		return h.cellAt(v.CellAddress())
	}
	return h.cellFromPossibleAddress(Address(w))
}

// requireMutable panics unless registry mutation is currently legal.
func (h *Heap) requireMutable(op string) {
	if h.state != heapIdle {
		panic("gc: cannot " + op + " during collection")
	}
}

func (h *Heap) didCreateHandle(impl *handleImpl) {
	h.requireMutable("create a handle")
	h.handles[impl] = struct{}{}
}

func (h *Heap) didDestroyHandle(impl *handleImpl) {
	delete(h.handles, impl)
}

func (h *Heap) didCreateMarkedVector(src rootSource) {
	h.requireMutable("register a marked vector")
	h.markedVectors[src] = struct{}{}
}

func (h *Heap) didDestroyMarkedVector(src rootSource) {
	delete(h.markedVectors, src)
}

func (h *Heap) didCreateConservativeVector(src rootSource) {
	h.requireMutable("register a conservative vector")
	h.conservativeVectors[src] = struct{}{}
}

func (h *Heap) didDestroyConservativeVector(src rootSource) {
	delete(h.conservativeVectors, src)
}

func (h *Heap) didCreateWeakContainer(w WeakContainer) {
	h.requireMutable("register a weak container")
	h.weakContainers[w] = struct{}{}
}

func (h *Heap) didDestroyWeakContainer(w WeakContainer) {
	delete(h.weakContainers, w)
}

// CellInfo describes one live cell for traversal callbacks.
type CellInfo struct {
	Cell    Cell
	Address Address
	Size    int // cell size in its block, i.e. size class width
}

// EachCell calls f for every live cell in address order, stopping early
// if f returns false. It must not run during a collection cycle; cells
// observed are exactly the live set at call time.
func (h *Heap) EachCell(f func(CellInfo) bool) {
	stopped := false
	h.eachBlock(func(blk *block) {
		if stopped {
			return
		}
		for _, c := range blk.cells {
			if c == nil {
				continue
			}
			if !f(CellInfo{Cell: c, Address: c.base().addr, Size: blk.cellSize}) {
				stopped = true
				return
			}
		}
	})
}

// HandleInfo identifies a live handle and the source location that
// created it, which is usually all you need to find a leak.
type HandleInfo struct {
	Address Address // target cell address
	File    string
	Line    int
}

// LiveHandles reports every registered handle, sorted by target address.
func (h *Heap) LiveHandles() []HandleInfo {
	infos := make([]HandleInfo, 0, len(h.handles))
	for impl := range h.handles {
		infos = append(infos, HandleInfo{
			Address: impl.cell.base().addr,
			File:    impl.file,
			Line:    impl.line,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Address != infos[j].Address {
			return infos[i].Address < infos[j].Address
		}
		return infos[i].Line < infos[j].Line
	})
	return infos
}

// Stats returns a point-in-time snapshot of heap counters.
func (h *Heap) Stats() Stats {
	blocks := 0
	h.eachBlock(func(*block) { blocks++ })
	return Stats{
		LiveCells:        h.liveCells,
		LiveBytes:        h.liveBytes,
		TotalAllocations: h.totalAllocations,
		TotalCollections: h.totalCollections,
		TotalCellsSwept:  h.totalCellsSwept,
		Blocks:           blocks,
		SizeClasses:      h.sizeTable.NumClasses(),
		SizeClassConfig:  h.sizeTable.config.Name,
		LiveHandles:      len(h.handles),
		WeakContainers:   len(h.weakContainers),
		LastCycle:        h.lastCycle,
	}
}
