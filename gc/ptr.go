package gc

// Ptr is a typed cell reference that pairs the Go pointer with the cell's
// heap address. The address rides along so that a Ptr stored in raw word
// storage (a ConservativeVector element, a HeapFunction capture record)
// is discoverable by the conservative scanner, which cannot interpret Go
// pointers.
//
// The zero Ptr is null. Ptr does not root its target: store it in a
// rooted structure, a registered vector, or a traced cell.
type Ptr[T any] struct {
	ptr  *T
	addr Address
}

// PtrTo wraps a cell pointer. A nil pointer yields the null Ptr.
func PtrTo[T any, PT cellPtr[T]](c PT) Ptr[T] {
	if c == nil {
		return Ptr[T]{}
	}
	return Ptr[T]{ptr: (*T)(c), addr: c.base().addr}
}

// Get returns the underlying pointer, nil for the null Ptr.
func (p Ptr[T]) Get() *T {
	return p.ptr
}

// IsNull reports whether p references nothing.
func (p Ptr[T]) IsNull() bool {
	return p.ptr == nil
}

// Addr returns the referenced cell's address, 0 for the null Ptr.
func (p Ptr[T]) Addr() Address {
	return p.addr
}

// cellAddress lets vectors treat Ptr elements as exact roots.
func (p Ptr[T]) cellAddress() Address {
	return p.addr
}

// possibleCellRef is the marker satisfied by element types that carry an
// exact cell address, currently only Ptr.
type possibleCellRef interface {
	cellAddress() Address
}
