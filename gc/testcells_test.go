package gc

import (
	"strings"
	"testing"
)

// object is the workhorse test cell: named, with edges to other cells and
// one tagged value slot.
type object struct {
	CellBase
	name string
	refs []*object
	val  Value
}

func (o *object) VisitEdges(v Visitor) {
	for _, r := range o.refs {
		v.Visit(r)
	}
	v.VisitValue(o.val)
}

// leaf has no edges and relies on CellBase's no-op VisitEdges.
type leaf struct {
	CellBase
	payload [4]int64
}

// finalizable bumps a shared counter when finalized.
type finalizable struct {
	CellBase
	counter *int
	onFinal func()
}

func (f *finalizable) Finalize() {
	if f.counter != nil {
		*f.counter++
	}
	if f.onFinal != nil {
		f.onFinal()
	}
}

// newTestHeap builds a heap with automatic collection disabled, so every
// cycle in a test is one the test asked for.
func newTestHeap(t *testing.T) *Heap {
	t.Helper()
	return NewWithOptions(Options{CollectionThreshold: -1})
}

// newObject allocates a named object on h.
func newObject(t *testing.T, h *Heap, name string) *object {
	t.Helper()
	o := Allocate[object](h)
	o.name = name
	return o
}

// requireLive fails the test unless the cell at addr is still live in h.
func requireLive(t *testing.T, h *Heap, addr Address, what string) {
	t.Helper()
	if h.cellAt(addr) == nil {
		t.Fatalf("%s (addr 0x%x) was collected, expected it live", what, addr)
	}
}

// requireDead fails the test unless the cell at addr has been reclaimed.
func requireDead(t *testing.T, h *Heap, addr Address, what string) {
	t.Helper()
	if h.cellAt(addr) != nil {
		t.Fatalf("%s (addr 0x%x) is still live, expected it collected", what, addr)
	}
}

// expectPanic runs fn and fails the test unless it panics with a message
// containing want.
func expectPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got no panic", want)
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, want) {
			t.Fatalf("expected panic containing %q, got %v", want, r)
		}
	}()
	fn()
}

// liveNames walks the heap and returns the names of live objects.
func liveNames(h *Heap) map[string]bool {
	names := make(map[string]bool)
	h.EachCell(func(ci CellInfo) bool {
		if o, ok := ci.Cell.(*object); ok {
			names[o.name] = true
		}
		return true
	})
	return names
}
