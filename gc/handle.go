package gc

import "runtime"

// handleImpl is the shared registration record behind one or more Handle
// values. It is registered with the owning heap while its refcount is
// positive; the registration is what makes the target a root.
type handleImpl struct {
	cell Cell
	heap *Heap
	refs int
	file string
	line int
}

// Handle is a refcounted strong reference that keeps one cell alive
// across collection cycles. The zero Handle is null and roots nothing.
//
// Handle controls root lifetime, never object lifetime: releasing the
// last handle does not destroy the cell, it only stops protecting it.
//
// Plain assignment copies share a single reference; releasing any one
// copy releases them all. Use Clone for an independently released
// reference to the same cell.
type Handle[T Cell] struct {
	impl *handleImpl
}

// NewHandle roots cell and returns a handle for it. A nil cell yields a
// null handle and registers nothing. It panics if cell was not allocated
// through a Heap.
func NewHandle[T Cell](cell T) Handle[T] {
	return makeHandle[T](Cell(cell), 2)
}

// NewHandleFromValue roots the cell boxed in v, yielding a null handle
// when v holds no cell or the cell is no longer live in h.
func NewHandleFromValue(h *Heap, v Value) Handle[Cell] {
	if !v.IsCell() {
		return Handle[Cell]{}
	}
	c := h.cellAt(v.CellAddress())
	if c == nil {
		return Handle[Cell]{}
	}
	return makeHandle[Cell](c, 2)
}

// NewHandleFromPtr roots the cell behind p, yielding a null handle for
// the null Ptr.
func NewHandleFromPtr[T any, PT cellPtr[T]](p Ptr[T]) Handle[PT] {
	if p.IsNull() {
		return Handle[PT]{}
	}
	return makeHandle[PT](Cell(PT(p.ptr)), 2)
}

// makeHandle allocates and registers the impl. skip addresses
// runtime.Caller so the recorded location is the exported constructor's
// call site.
func makeHandle[T Cell](c Cell, skip int) Handle[T] {
	if IsNilCell(c) {
		return Handle[T]{}
	}
	b := c.base()
	if b.heap == nil {
		panic("gc: cell was not allocated on a heap")
	}
	impl := &handleImpl{cell: c, heap: b.heap, refs: 1}
	if _, file, line, ok := runtime.Caller(skip); ok {
		impl.file, impl.line = file, line
	}
	b.heap.didCreateHandle(impl)
	return Handle[T]{impl: impl}
}

// IsNull reports whether the handle references nothing.
func (h Handle[T]) IsNull() bool {
	return h.impl == nil
}

// Cell returns the rooted cell. Dereferencing a null handle is a
// contract violation and panics.
func (h Handle[T]) Cell() T {
	if h.impl == nil {
		panic("gc: dereference of a null handle")
	}
	return h.impl.cell.(T)
}

// Address returns the rooted cell's address, 0 for a null handle. It is
// the identity to key maps by.
func (h Handle[T]) Address() Address {
	if h.impl == nil {
		return 0
	}
	return h.impl.cell.base().addr
}

// Location returns the source position that created this handle's
// registration, for tracking down leaked roots.
func (h Handle[T]) Location() (file string, line int) {
	if h.impl == nil {
		return "", 0
	}
	return h.impl.file, h.impl.line
}

// Clone returns a new independently released reference to the same cell.
// Cloning a null handle yields a null handle.
func (h Handle[T]) Clone() Handle[T] {
	if h.impl != nil {
		h.impl.refs++
	}
	return h
}

// Release drops this handle's reference. When the last reference to the
// shared registration drops, the cell stops being a root. Release on a
// null or already released handle value is a no-op; releasing through a
// second plain copy after the shared reference count already reached
// zero is a contract violation and panics.
func (h *Handle[T]) Release() {
	if h.impl == nil {
		return
	}
	impl := h.impl
	h.impl = nil
	impl.refs--
	if impl.refs < 0 {
		panic("gc: handle released more times than referenced")
	}
	if impl.refs == 0 {
		impl.heap.didDestroyHandle(impl)
	}
}

// Equal reports whether both handles reference the same cell. Two null
// handles are equal; handles backed by different registrations compare
// equal when their cells are the same.
func (h Handle[T]) Equal(other Handle[T]) bool {
	if h.impl == nil || other.impl == nil {
		return h.impl == other.impl
	}
	return h.impl.cell.base() == other.impl.cell.base()
}
