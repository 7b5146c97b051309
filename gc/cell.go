package gc

import "reflect"

// Address is a cell's identity: a location in the heap's private virtual
// address space. Addresses are stable for the lifetime of the cell and fit
// in 48 bits, so they can ride in a NaN-boxed Value payload.
type Address uint64

// Cell is the base interface of every heap-managed object. Concrete cell
// types embed CellBase (which supplies everything except edge traversal)
// and override VisitEdges when they hold references to other cells.
//
// Only types embedding CellBase can satisfy Cell; the interface is sealed
// so the heap can rely on the base bookkeeping being present.
type Cell interface {
	// VisitEdges reports every cell reference this cell holds to v.
	// The heap calls it during marking; tooling calls it to discover
	// the object graph. Leaf cells inherit the no-op from CellBase.
	VisitEdges(v Visitor)

	// Address returns the cell's identity in its heap's address space.
	// CellBase supplies it for every concrete cell type.
	Address() Address

	base() *CellBase
}

// Finalizer is implemented by cells that need cleanup before destruction.
// Finalize runs during sweep, after the full dead set is known and before
// any dead cell's storage is released, so finalizers may still inspect
// other dying cells. Finalizers must not allocate, create handles, or
// register weak containers on the heap being swept.
type Finalizer interface {
	Finalize()
}

// CellBase carries the per-cell state the collector needs: identity,
// owning heap, mark bit, and liveness. Embed it as the first field of a
// cell type. The zero value is inert; Allocate initializes it.
type CellBase struct {
	addr   Address
	heap   *Heap
	marked bool
	live   bool
}

// Address returns the cell's identity in its heap's address space.
// It is 0 for a cell that was never allocated through a Heap.
func (b *CellBase) Address() Address {
	return b.addr
}

// Heap returns the heap that owns this cell, or nil for a cell that was
// never allocated through one.
func (b *CellBase) Heap() *Heap {
	return b.heap
}

// IsLive reports whether the cell is between allocation and reclamation.
// It flips to false during the sweep that destroys the cell.
func (b *CellBase) IsLive() bool {
	return b.live
}

// VisitEdges is the leaf-cell default: no references.
func (b *CellBase) VisitEdges(Visitor) {}

func (b *CellBase) base() *CellBase { return b }

// SameCell reports whether a and b are the same cell. Either side may be
// nil (or a typed nil pointer), which compares equal only to another nil.
func SameCell(a, b Cell) bool {
	an, bn := IsNilCell(a), IsNilCell(b)
	if an || bn {
		return an && bn
	}
	return a.base() == b.base()
}

// IsNilCell reports whether c is nil or a typed nil pointer wrapped in the
// Cell interface. Edge callbacks receive both forms, so a comparison
// against plain nil is not sufficient.
func IsNilCell(c Cell) bool {
	if c == nil {
		return true
	}
	rv := reflect.ValueOf(c)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
