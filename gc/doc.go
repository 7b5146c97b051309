// Package gc implements the root-tracking heap of an embedded tracing
// garbage collector, designed to back interpreters and other language
// runtimes hosted in a Go process.
//
// # Overview
//
// This package provides a mark-and-sweep collected heap for "cells":
// runtime-managed objects that may reference each other. The collector is
// exact where it can be (handles, marked vectors, traced edges) and
// conservative where it must be (raw word storage, closure captures). All
// collection work happens synchronously inside Allocate or CollectGarbage,
// on the single goroutine that drives the heap.
//
// # Key Types
//
// The main types provided by this package are:
//
//   - Heap: owns all cells, drives allocation and collection
//   - Cell / CellBase: the base of every heap-managed object
//   - Handle: refcounted strong reference that keeps one cell alive
//   - MarkedVector: root-registered sequence with exact root enumeration
//   - ConservativeVector: root-registered sequence scanned as raw words
//   - WeakContainer: observer purged of dead cells after each cycle
//   - HeapFunction: closure cell whose captures are traced conservatively
//   - Value: NaN-boxed tagged word (float64, int32, bool, null, cell, ...)
//
// # Cells
//
// A cell type embeds CellBase and optionally overrides VisitEdges to
// declare its references:
//
//	type Object struct {
//	    gc.CellBase
//	    Proto *Object
//	}
//
//	func (o *Object) VisitEdges(v gc.Visitor) {
//	    v.Visit(o.Proto)
//	}
//
// Cells are created with Allocate and are never freed explicitly:
//
//	h := gc.New()
//	obj := gc.Allocate[Object](h)
//
// # Rooting
//
// A cell survives collection only while it is reachable from a root: a live
// Handle, an element of a registered MarkedVector or ConservativeVector, an
// edge of a reachable cell, or a root supplied by the embedder callback.
// A freshly allocated cell must be rooted before the next operation that
// may collect on the same heap; use DeferGC to bridge multi-allocation
// construction windows:
//
//	undefer := h.DeferGC()
//	a := gc.Allocate[Object](h)
//	a.Proto = gc.Allocate[Object](h)
//	root := gc.NewHandle(a)
//	undefer()
//
// # Weak References
//
// Types embedding WeakContainerBase and implementing RemoveDeadCells are
// notified once per collection cycle, after marking and before dead cells
// are destroyed, so they can drop entries for cells that did not survive.
//
// # Error Model
//
// The heap has no recoverable failure path: contract violations (using a
// null handle, registering a weak container twice, allocating during a
// sweep) and resource exhaustion panic with a "gc:" prefixed message. A
// runtime cannot safely continue on a corrupted heap.
//
// # Related Packages
//
//   - github.com/heapkit/heapkit/snapshot: heap graph capture and codec
//   - github.com/heapkit/heapkit/internal/rawspan: audited word reinterpretation
package gc
