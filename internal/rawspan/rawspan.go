// Package rawspan reinterprets typed storage as raw 64-bit words for
// conservative scanning. It is the only unsafe code in the module; every
// conservative read anywhere else funnels through these two functions so
// the reinterpretation rules live in one audited place.
//
// The rules:
//
//   - Word views are read-only. Callers scan, they never write.
//   - Element sizes that are a multiple of 8 map exactly; otherwise the
//     view floors to whole words and trailing bytes are not scanned. A
//     cell address cannot live in fewer than 8 bytes, so flooring never
//     hides a reference.
//   - Views borrow the caller's storage; they are valid only while the
//     original slice or pointee is.
package rawspan

import (
	"reflect"
	"unsafe"
)

// Words returns s's backing array viewed as 64-bit words.
func Words[T any](s []T) []uint64 {
	if len(s) == 0 {
		return nil
	}
	size := reflect.TypeOf((*T)(nil)).Elem().Size()
	n := uintptr(len(s)) * size / 8
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(unsafe.SliceData(s))), n)
}

// WordsOf returns p's pointee viewed as 64-bit words.
func WordsOf[T any](p *T) []uint64 {
	n := reflect.TypeOf((*T)(nil)).Elem().Size() / 8
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(p)), n)
}
