package gc

import "reflect"

// elemKind is how a MarkedVector enumerates roots from its element type.
type elemKind int

const (
	elemValue elemKind = iota // tagged Value words
	elemCell                  // cell pointers or the Cell interface
	elemRef                   // Ptr elements
)

// markedElemKind classifies T. Element types whose cells the vector
// cannot enumerate are rejected at construction.
func markedElemKind[T any]() elemKind {
	t := reflect.TypeOf((*T)(nil)).Elem()
	switch {
	case t == reflect.TypeOf((*Value)(nil)).Elem():
		return elemValue
	case t.Implements(reflect.TypeOf((*Cell)(nil)).Elem()):
		return elemCell
	case t.Implements(reflect.TypeOf((*possibleCellRef)(nil)).Elem()):
		return elemRef
	default:
		panic("gc: marked vector elements must be Values, cells, or Ptrs")
	}
}

// MarkedVector is a growable sequence whose elements are exact roots: as
// long as the vector is registered, every cell its elements reference
// survives collection. Element types are Value (rooting only elements
// that currently box a cell), any cell pointer type, the Cell interface,
// or Ptr.
//
// A vector is registered with exactly one heap from construction until
// Release.
type MarkedVector[T any] struct {
	heap       *Heap
	registered bool
	kind       elemKind
	elems      []T
}

// NewMarkedVector creates an empty vector registered with h.
func NewMarkedVector[T any](h *Heap) *MarkedVector[T] {
	v := &MarkedVector[T]{heap: h, kind: markedElemKind[T]()}
	v.register()
	return v
}

func (v *MarkedVector[T]) register() {
	v.heap.didCreateMarkedVector(v)
	v.registered = true
}

func (v *MarkedVector[T]) deregister() {
	if !v.registered {
		return
	}
	v.heap.didDestroyMarkedVector(v)
	v.registered = false
}

func (v *MarkedVector[T]) mustLive() {
	if !v.registered {
		panic("gc: use of a released marked vector")
	}
}

// Heap returns the heap this vector roots into.
func (v *MarkedVector[T]) Heap() *Heap {
	return v.heap
}

// Len returns the element count.
func (v *MarkedVector[T]) Len() int {
	return len(v.elems)
}

// Append adds elements to the end.
func (v *MarkedVector[T]) Append(elems ...T) {
	v.mustLive()
	v.elems = append(v.elems, elems...)
}

// At returns the element at index i.
func (v *MarkedVector[T]) At(i int) T {
	v.mustLive()
	return v.elems[i]
}

// Set replaces the element at index i.
func (v *MarkedVector[T]) Set(i int, e T) {
	v.mustLive()
	v.elems[i] = e
}

// Clear removes all elements, keeping capacity.
func (v *MarkedVector[T]) Clear() {
	v.mustLive()
	clear(v.elems)
	v.elems = v.elems[:0]
}

// Values returns the backing slice. Mutating elements through it is fine;
// growing it does not grow the vector.
func (v *MarkedVector[T]) Values() []T {
	v.mustLive()
	return v.elems
}

// Clone returns an independent copy registered with this vector's heap.
// The copy belongs to the source's heap no matter where the caller got
// it, and releasing either vector never affects the other.
func (v *MarkedVector[T]) Clone() *MarkedVector[T] {
	c := NewMarkedVector[T](v.heap)
	c.elems = append(c.elems, v.elems...)
	return c
}

// CopyFrom replaces v's elements with src's and adopts src's heap,
// re-registering there if needed. Assignment and Clone agree: after
// either, the result roots into the source's heap.
func (v *MarkedVector[T]) CopyFrom(src *MarkedVector[T]) {
	if src == v {
		return
	}
	if v.registered && v.heap != src.heap {
		v.deregister()
	}
	if !v.registered {
		v.heap = src.heap
		v.register()
	}
	v.elems = append(v.elems[:0], src.elems...)
}

// Release deregisters the vector and drops its storage. The elements
// stop being roots at the next cycle. Release is idempotent.
func (v *MarkedVector[T]) Release() {
	v.deregister()
	v.elems = nil
}

// gatherRoots contributes this vector's cells to a cycle's root set.
// Value elements contribute only when they currently box a cell; the
// others always name a cell (or nothing, for nils).
func (v *MarkedVector[T]) gatherRoots(rs *RootSet) {
	switch v.kind {
	case elemValue:
		for _, e := range v.elems {
			rs.AddValue(any(e).(Value), RootMarkedVector)
		}
	case elemCell:
		for _, e := range v.elems {
			if c, ok := any(e).(Cell); ok {
				rs.AddCell(c, RootMarkedVector)
			}
		}
	case elemRef:
		for _, e := range v.elems {
			addr := any(e).(possibleCellRef).cellAddress()
			if addr == 0 {
				continue
			}
			if c := rs.heap.cellAt(addr); c != nil {
				rs.AddCell(c, RootMarkedVector)
			}
		}
	}
}
