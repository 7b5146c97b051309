package gc

import (
	"reflect"

	"github.com/heapkit/heapkit/internal/rawspan"
)

// HeapFunction wraps a closure in a cell so that cell references living
// in the closure's captures are kept alive by ordinary tracing instead of
// needing an external root. The captures live in a record of type C on
// the cell itself; the closure reads them through a pointer to that
// record, so what the collector scans is exactly what the closure sees.
//
// Cell references inside C must be stored as Value, Ptr, or Address
// fields; those are what the conservative capture scan can recognize.
type HeapFunction[C any, F any] struct {
	CellBase
	captures C
	fn       F
}

// NewHeapFunction allocates a function cell on h. bind receives a pointer
// to the heap-resident capture record and returns the closure to wrap;
// captures has already been copied into the record when bind runs.
//
// The returned cell is unrooted, like any fresh allocation; bind must not
// allocate on h. It panics if F is not a function type.
func NewHeapFunction[C, F any](h *Heap, captures C, bind func(*C) F) *HeapFunction[C, F] {
	if reflect.TypeOf((*F)(nil)).Elem().Kind() != reflect.Func {
		panic("gc: heap function must wrap a function type")
	}
	hf := Allocate[HeapFunction[C, F]](h)
	hf.captures = captures
	hf.fn = bind(&hf.captures)
	return hf
}

// Function returns the wrapped closure.
func (hf *HeapFunction[C, F]) Function() F {
	return hf.fn
}

// Captures returns the heap-resident capture record. Mutations through
// the pointer are seen by both the closure and the collector.
func (hf *HeapFunction[C, F]) Captures() *C {
	return &hf.captures
}

// VisitEdges scans the whole capture record as raw words, not just
// declared fields, so a cell reference at any word offset keeps its
// target alive. Records whose size is not a multiple of 8 have their
// trailing bytes skipped; no 8-byte reference can live there, since any
// record containing one is padded to a word multiple.
func (hf *HeapFunction[C, F]) VisitEdges(v Visitor) {
	v.VisitPossibleValues(rawspan.WordsOf(&hf.captures))
}
