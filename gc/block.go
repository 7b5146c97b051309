package gc

const (
	// blockSize is the virtual address span of one block. Every block is
	// blockSize-aligned within the arena, so address-to-block resolution
	// is pure arithmetic.
	blockSize = 16 * 1024

	// arenaBase is where the heap's virtual address space starts. It is
	// high enough that small integers and Go runtime pointers on common
	// platforms do not alias it, and low enough that the whole arena
	// stays below 2^48 for NaN-box payloads.
	arenaBase Address = 1 << 32

	// arenaLimit caps cell addresses at the NaN-box payload width.
	arenaLimit Address = 1 << 48
)

// block is a span of the heap's virtual address space serving cells of a
// single size. Cell payloads are ordinary Go objects; the slot table is
// what keeps them alive until the collector clears them, and what resolves
// an address back to its cell in O(1).
//
// A block normally spans exactly blockSize addresses. Cells larger than
// the biggest size class get a dedicated block covering enough consecutive
// block-aligned spans to fit one cell.
type block struct {
	base     Address
	cellSize int
	span     int            // total address span, a multiple of blockSize
	owner    *cellAllocator // allocator to notify when sweep frees slots

	// cells is the slot table: cells[i] holds the cell at
	// base + i*cellSize, nil when the slot is free.
	cells []Cell

	// freeSlots is a LIFO of reusable slot indices. Slots never handed
	// out yet are tracked by nextSlot instead.
	freeSlots []uint32
	nextSlot  uint32

	liveCount int
}

func newBlock(base Address, cellSize int) *block {
	span := blockSize
	for span < cellSize {
		span += blockSize
	}
	return &block{
		base:     base,
		cellSize: cellSize,
		span:     span,
		cells:    make([]Cell, span/cellSize),
	}
}

// hasFreeSlot reports whether takeSlot can succeed.
func (b *block) hasFreeSlot() bool {
	return len(b.freeSlots) > 0 || int(b.nextSlot) < len(b.cells)
}

// takeSlot claims a free slot and returns its index. The caller must have
// checked hasFreeSlot.
func (b *block) takeSlot() uint32 {
	if n := len(b.freeSlots); n > 0 {
		slot := b.freeSlots[n-1]
		b.freeSlots = b.freeSlots[:n-1]
		return slot
	}
	slot := b.nextSlot
	b.nextSlot++
	return slot
}

// install binds c to slot and assigns the cell its identity.
func (b *block) install(slot uint32, c Cell, h *Heap) {
	cb := c.base()
	cb.addr = b.base + Address(int(slot)*b.cellSize)
	cb.heap = h
	cb.live = true
	b.cells[slot] = c
	b.liveCount++
}

// clear releases the cell in slot back to the Go runtime and recycles the
// slot.
func (b *block) clear(slot uint32) {
	b.cells[slot] = nil
	b.freeSlots = append(b.freeSlots, slot)
	b.liveCount--
}

// slotOf maps an address inside this block's span to its slot index. Any
// address within a cell's extent maps to that cell's slot.
func (b *block) slotOf(addr Address) uint32 {
	return uint32(uint64(addr-b.base) / uint64(b.cellSize))
}

// cellAt returns the live cell whose extent contains addr, or nil.
func (b *block) cellAt(addr Address) Cell {
	slot := b.slotOf(addr)
	if int(slot) >= len(b.cells) {
		return nil
	}
	return b.cells[slot]
}
