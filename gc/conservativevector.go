package gc

import (
	"fmt"
	"reflect"

	"github.com/heapkit/heapkit/internal/rawspan"
)

// ConservativeVector is a growable sequence whose backing storage is
// scanned as raw 64-bit words at each cycle: any word that could be a
// live cell's address, or a NaN-boxed cell value, roots that cell. This
// trades precision for generality: element types can be opaque payload
// structs the heap knows nothing about, as long as any cell references
// inside them are stored as addresses, Values, or Ptrs.
//
// False positives only retain; a word that happens to look like an
// address keeps a cell alive one cycle longer, never breaks anything.
//
// Element types must have 8-byte-multiple size so word scanning never
// straddles elements; violating that is fatal at construction.
type ConservativeVector[T any] struct {
	heap       *Heap
	registered bool
	elems      []T
}

// NewConservativeVector creates an empty vector registered with h.
func NewConservativeVector[T any](h *Heap) *ConservativeVector[T] {
	if size := reflect.TypeOf((*T)(nil)).Elem().Size(); size == 0 || size%8 != 0 {
		panic(fmt.Sprintf("gc: conservative vector element %s is not word sized (%d bytes)",
			reflect.TypeOf((*T)(nil)).Elem(), size))
	}
	v := &ConservativeVector[T]{heap: h}
	v.register()
	return v
}

func (v *ConservativeVector[T]) register() {
	v.heap.didCreateConservativeVector(v)
	v.registered = true
}

func (v *ConservativeVector[T]) deregister() {
	if !v.registered {
		return
	}
	v.heap.didDestroyConservativeVector(v)
	v.registered = false
}

func (v *ConservativeVector[T]) mustLive() {
	if !v.registered {
		panic("gc: use of a released conservative vector")
	}
}

// Heap returns the heap this vector roots into.
func (v *ConservativeVector[T]) Heap() *Heap {
	return v.heap
}

// Len returns the element count.
func (v *ConservativeVector[T]) Len() int {
	return len(v.elems)
}

// Append adds elements to the end.
func (v *ConservativeVector[T]) Append(elems ...T) {
	v.mustLive()
	v.elems = append(v.elems, elems...)
}

// At returns the element at index i.
func (v *ConservativeVector[T]) At(i int) T {
	v.mustLive()
	return v.elems[i]
}

// Set replaces the element at index i.
func (v *ConservativeVector[T]) Set(i int, e T) {
	v.mustLive()
	v.elems[i] = e
}

// Clear removes all elements, keeping capacity.
func (v *ConservativeVector[T]) Clear() {
	v.mustLive()
	clear(v.elems)
	v.elems = v.elems[:0]
}

// Values returns the backing slice.
func (v *ConservativeVector[T]) Values() []T {
	v.mustLive()
	return v.elems
}

// Words returns the backing storage reinterpreted as 64-bit words, the
// exact view the collector scans. Exposed for tests and diagnostics.
func (v *ConservativeVector[T]) Words() []uint64 {
	v.mustLive()
	return rawspan.Words(v.elems)
}

// Clone returns an independent copy registered with this vector's heap,
// with the same re-homing rule as MarkedVector.Clone.
func (v *ConservativeVector[T]) Clone() *ConservativeVector[T] {
	c := NewConservativeVector[T](v.heap)
	c.elems = append(c.elems, v.elems...)
	return c
}

// CopyFrom replaces v's elements with src's and adopts src's heap.
func (v *ConservativeVector[T]) CopyFrom(src *ConservativeVector[T]) {
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

// Release deregisters the vector and drops its storage. Idempotent.
func (v *ConservativeVector[T]) Release() {
	v.deregister()
	v.elems = nil
}

// gatherRoots contributes every word that resolves to a live cell.
func (v *ConservativeVector[T]) gatherRoots(rs *RootSet) {
	for _, w := range rawspan.Words(v.elems) {
		rs.addWord(w, RootConservativeVector)
	}
}
