package gc

// Visitor receives the references a cell holds. The collector passes one
// to VisitEdges during marking; snapshot capture passes a recording
// implementation to walk the same graph.
//
// Implementations must tolerate nil cells, non-cell values, and words that
// are not addresses: cell code reports what it has, the visitor filters.
type Visitor interface {
	// Visit reports a direct cell reference. Nil (including typed nil)
	// is ignored.
	Visit(c Cell)

	// VisitValue reports a tagged value that may or may not hold a cell.
	VisitValue(v Value)

	// VisitPossibleValues reports raw words that may encode cell
	// addresses, either directly or as NaN-boxed cell values. Words that
	// resolve to no live cell are ignored.
	VisitPossibleValues(words []uint64)
}

// VisitHandle reports the cell behind h, if any. Go interfaces cannot
// carry generic methods, so the handle overload lives here instead of on
// Visitor.
func VisitHandle[T Cell](v Visitor, h Handle[T]) {
	if h.IsNull() {
		return
	}
	v.Visit(h.Cell())
}

// VisitPtr reports the cell behind p, if any.
func VisitPtr[T any, PT cellPtr[T]](v Visitor, p Ptr[T]) {
	if p.IsNull() {
		return
	}
	v.Visit(PT(p.ptr))
}
