package gc

import "reflect"

// cellPtr constrains PT to "pointer to T that is a Cell", which is what
// Allocate hands back. Constraint inference fills PT in, so call sites
// only name T.
type cellPtr[T any] interface {
	*T
	Cell
}

// cellAllocator serves one size class. It owns the class's blocks and
// keeps a stack of blocks that still have free slots, so allocation is
// O(1): peek the top usable block, take a slot.
type cellAllocator struct {
	cellSize int
	blocks   []*block
	usable   []*block
}

func newCellAllocator(cellSize int) *cellAllocator {
	return &cellAllocator{cellSize: cellSize}
}

// allocate claims a slot, growing the arena with a fresh block when every
// existing block is full.
func (a *cellAllocator) allocate(h *Heap) (*block, uint32) {
	for n := len(a.usable); n > 0; n = len(a.usable) {
		blk := a.usable[n-1]
		if blk.hasFreeSlot() {
			return blk, blk.takeSlot()
		}
		// Filled up since it was pushed; drop it and keep looking.
		a.usable = a.usable[:n-1]
	}

	blk := h.addBlock(a.cellSize)
	blk.owner = a
	a.blocks = append(a.blocks, blk)
	a.usable = append(a.usable, blk)
	return blk, blk.takeSlot()
}

// noteFreed re-registers blk as usable after a sweep freed slots in it.
func (a *cellAllocator) noteFreed(blk *block) {
	for _, u := range a.usable {
		if u == blk {
			return
		}
	}
	a.usable = append(a.usable, blk)
}

// Allocate constructs a new cell of type T on h and returns it live. The
// returned cell is unrooted: it survives only until the next operation on
// h that may collect, unless it is rooted or reachable from a root by
// then. Allocation pressure is evaluated before the cell is constructed,
// never after.
//
// It panics if the heap is mid-collection (allocating from a finalizer or
// a weak-container callback) or if the arena is exhausted.
func Allocate[T any, PT cellPtr[T]](h *Heap) PT {
	h.beforeAllocation()

	size := cellSizeOf[T]()
	obj := PT(new(T))
	h.adopt(obj, size)
	return obj
}

// cellSizeOf returns T's in-memory size rounded up to word granularity.
// The virtual arena tracks this size for class selection and byte
// accounting; the payload itself is an ordinary Go allocation.
func cellSizeOf[T any]() int {
	size := int(reflect.TypeOf((*T)(nil)).Elem().Size())
	if size < minCellSize {
		size = minCellSize
	}
	return alignCellSize(size)
}

const minCellSize = 16
