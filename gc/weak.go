package gc

// WeakContainer is implemented by structures that observe cells without
// keeping them alive: weak maps, weak sets, identity caches. Each
// collection cycle, after marking and before dead cells are destroyed,
// the heap calls RemoveDeadCells exactly once on every container that was
// registered when the cycle began; the implementation must drop every
// entry whose cell s.IsDead reports dead.
//
// Implementations embed WeakContainerBase, which carries the
// registration state and supplies Deregister.
type WeakContainer interface {
	RemoveDeadCells(s Sweeper)

	weakBase() *WeakContainerBase
}

// WeakContainerBase carries a weak container's registration. The zero
// value is unregistered; RegisterWeakContainer activates it.
type WeakContainerBase struct {
	heap       *Heap
	owner      WeakContainer
	registered bool
}

func (b *WeakContainerBase) weakBase() *WeakContainerBase { return b }

// Heap returns the heap the container was last registered with, nil
// before the first registration.
func (b *WeakContainerBase) Heap() *Heap {
	return b.heap
}

// IsRegistered reports whether the container currently receives
// RemoveDeadCells callbacks.
func (b *WeakContainerBase) IsRegistered() bool {
	return b.registered
}

// Deregister removes the container from its heap's weak registry. It is
// idempotent and safe to call from any cleanup path, including from
// within the container's own RemoveDeadCells.
func (b *WeakContainerBase) Deregister() {
	if !b.registered {
		return
	}
	b.registered = false
	b.heap.didDestroyWeakContainer(b.owner)
	b.owner = nil
}

// RegisterWeakContainer registers w with h. Registering an
// already-registered container is a contract violation and panics, as is
// registering while h is mid-cycle (from a finalizer or another
// container's RemoveDeadCells).
func RegisterWeakContainer(h *Heap, w WeakContainer) {
	b := w.weakBase()
	if b.registered {
		panic("gc: weak container registered twice")
	}
	h.didCreateWeakContainer(w)
	b.heap = h
	b.owner = w
	b.registered = true
}
