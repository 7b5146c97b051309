// Package mmfile memory-maps snapshot files for read-only parsing,
// falling back to a plain read on platforms without a usable mmap.
package mmfile
