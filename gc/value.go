package gc

import (
	"fmt"
	"math"
)

// Value is a NaN-boxed tagged word. A Value is either a float64 (any bit
// pattern outside the tag range) or one of the tagged variants packed into
// the unused negative quiet-NaN space:
//
//	bits 63..48  tag (0xFFF8 - 0xFFFD)
//	bits 47..0   payload
//
// Cell payloads are 48-bit heap addresses. NaN float64 inputs are
// canonicalized on boxing so no float can collide with a tag.
//
// Value is a plain 64-bit word: it can live in ConservativeVector storage
// and in HeapFunction capture records, where the conservative scanner
// recognizes boxed cell payloads.
type Value uint64

const (
	valueTagShift = 48
	valuePayload  = (uint64(1) << valueTagShift) - 1

	tagCell      = 0xFFF8
	tagInt32     = 0xFFF9
	tagBool      = 0xFFFA
	tagNull      = 0xFFFB
	tagUndefined = 0xFFFC
	tagEmpty     = 0xFFFD

	// lowestTag is the first bit pattern reserved for tags. Canonicalized
	// floats never reach it: the largest float prefix is 0xFFF0 (-Inf).
	lowestTag = tagCell

	// canonicalNaN is the quiet NaN all NaN inputs collapse to.
	canonicalNaN = 0x7FF8000000000000
)

func makeValue(tag uint16, payload uint64) Value {
	return Value(uint64(tag)<<valueTagShift | payload&valuePayload)
}

func (v Value) tag() uint16 {
	return uint16(uint64(v) >> valueTagShift)
}

// EmptyValue returns the sentinel for "no value at all" (distinct from
// undefined). Freshly grown vector storage reads as empty.
func EmptyValue() Value { return makeValue(tagEmpty, 0) }

// UndefinedValue returns the undefined variant.
func UndefinedValue() Value { return makeValue(tagUndefined, 0) }

// NullValue returns the null variant.
func NullValue() Value { return makeValue(tagNull, 0) }

// BoolValue boxes a bool.
func BoolValue(b bool) Value {
	if b {
		return makeValue(tagBool, 1)
	}
	return makeValue(tagBool, 0)
}

// Int32Value boxes an int32.
func Int32Value(i int32) Value {
	return makeValue(tagInt32, uint64(uint32(i)))
}

// Float64Value boxes a float64. All NaNs collapse to one canonical quiet
// NaN so that no input bit pattern can alias the tag range.
func Float64Value(f float64) Value {
	if math.IsNaN(f) {
		return Value(canonicalNaN)
	}
	return Value(math.Float64bits(f))
}

// CellValue boxes a reference to c. Boxing a nil cell yields the empty
// value, mirroring how an absent reference reads.
func CellValue(c Cell) Value {
	if IsNilCell(c) {
		return EmptyValue()
	}
	return makeValue(tagCell, uint64(c.base().addr))
}

// IsEmpty reports whether v is the empty sentinel.
func (v Value) IsEmpty() bool { return v.tag() == tagEmpty }

// IsUndefined reports whether v is undefined.
func (v Value) IsUndefined() bool { return v.tag() == tagUndefined }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.tag() == tagNull }

// IsBool reports whether v holds a bool.
func (v Value) IsBool() bool { return v.tag() == tagBool }

// IsInt32 reports whether v holds an int32.
func (v Value) IsInt32() bool { return v.tag() == tagInt32 }

// IsCell reports whether v holds a cell reference.
func (v Value) IsCell() bool { return v.tag() == tagCell }

// IsFloat64 reports whether v holds a float64, i.e. is not any tagged
// variant.
func (v Value) IsFloat64() bool { return v.tag() < lowestTag }

// AsBool unboxes a bool. It panics if v holds another variant.
func (v Value) AsBool() bool {
	if !v.IsBool() {
		panic("gc: value is not a bool")
	}
	return uint64(v)&valuePayload != 0
}

// AsInt32 unboxes an int32. It panics if v holds another variant.
func (v Value) AsInt32() int32 {
	if !v.IsInt32() {
		panic("gc: value is not an int32")
	}
	return int32(uint32(uint64(v) & valuePayload))
}

// AsFloat64 unboxes a float64. It panics if v holds another variant.
func (v Value) AsFloat64() float64 {
	if !v.IsFloat64() {
		panic("gc: value is not a float64")
	}
	return math.Float64frombits(uint64(v))
}

// CellAddress returns the boxed cell's address. It panics if v does not
// hold a cell.
func (v Value) CellAddress() Address {
	if !v.IsCell() {
		panic("gc: value is not a cell")
	}
	return Address(uint64(v) & valuePayload)
}

// Cell resolves the boxed cell in h. It panics if v does not hold a cell
// and returns nil if the referenced cell is no longer live in h.
func (v Value) Cell(h *Heap) Cell {
	return h.cellAt(v.CellAddress())
}

// String renders the value for logs and test failures.
func (v Value) String() string {
	switch v.tag() {
	case tagEmpty:
		return "empty"
	case tagUndefined:
		return "undefined"
	case tagNull:
		return "null"
	case tagBool:
		return fmt.Sprintf("%t", v.AsBool())
	case tagInt32:
		return fmt.Sprintf("%d", v.AsInt32())
	case tagCell:
		return fmt.Sprintf("cell@0x%x", uint64(v)&valuePayload)
	default:
		return fmt.Sprintf("%g", math.Float64frombits(uint64(v)))
	}
}
