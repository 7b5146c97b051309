package gc

import (
	"testing"
)

func Test_Heap_AllocateAssignsIdentity(t *testing.T) {
	h := newTestHeap(t)

	a := newObject(t, h, "a")
	b := newObject(t, h, "b")

	if a.Address() == 0 || b.Address() == 0 {
		t.Fatal("allocated cells must have nonzero addresses")
	}
	if a.Address() == b.Address() {
		t.Fatalf("distinct cells share address 0x%x", a.Address())
	}
	if a.Address() < arenaBase {
		t.Fatalf("address 0x%x is below the arena base", a.Address())
	}
	if a.Heap() != h || b.Heap() != h {
		t.Fatal("cells do not report their owning heap")
	}
	if !a.IsLive() {
		t.Fatal("fresh cell is not live")
	}
	if got := h.cellAt(a.Address()); !SameCell(got, a) {
		t.Fatal("address does not resolve back to the cell")
	}
}

func Test_Heap_CollectReclaimsUnrooted(t *testing.T) {
	h := newTestHeap(t)

	o := newObject(t, h, "orphan")
	addr := o.Address()

	h.CollectGarbage()

	requireDead(t, h, addr, "unrooted cell")
	if o.IsLive() {
		t.Fatal("swept cell still reports live")
	}
	if got := h.Stats().LiveCells; got != 0 {
		t.Fatalf("expected 0 live cells, got %d", got)
	}
}

func Test_Heap_ReachabilityClosure(t *testing.T) {
	h := newTestHeap(t)

	// root -> a -> b -> c, with b also closing a cycle back to root.
	root := newObject(t, h, "root")
	a := newObject(t, h, "a")
	b := newObject(t, h, "b")
	c := newObject(t, h, "c")
	root.refs = append(root.refs, a)
	a.refs = append(a.refs, b)
	b.refs = append(b.refs, c, root)

	newObject(t, h, "orphan1")
	newObject(t, h, "orphan2")

	hd := NewHandle(root)
	h.CollectGarbage()

	names := liveNames(h)
	for _, want := range []string{"root", "a", "b", "c"} {
		if !names[want] {
			t.Fatalf("reachable cell %q was collected", want)
		}
	}
	if names["orphan1"] || names["orphan2"] {
		t.Fatal("unreachable cells survived")
	}

	// Releasing the only root collapses the whole cycle.
	hd.Release()
	h.CollectGarbage()
	if got := len(liveNames(h)); got != 0 {
		t.Fatalf("expected empty heap after releasing root, got %d objects", got)
	}
}

func Test_Heap_ValueEdgesKeepAlive(t *testing.T) {
	h := newTestHeap(t)

	holder := newObject(t, h, "holder")
	target := newObject(t, h, "target")
	holder.val = CellValue(target)

	hd := NewHandle(holder)
	defer hd.Release()
	h.CollectGarbage()

	requireLive(t, h, target.Address(), "cell referenced through a boxed value")
}

func Test_Heap_CollectAllIgnoresRoots(t *testing.T) {
	h := newTestHeap(t)

	o := newObject(t, h, "doomed")
	addr := o.Address()
	hd := NewHandle(o)

	h.CollectAllGarbage()

	requireDead(t, h, addr, "cell rooted by a handle")
	if o.IsLive() {
		t.Fatal("cell still reports live after teardown")
	}

	// The stale handle stays registered but is inert: the next cycle
	// must neither resurrect the cell nor crash on it.
	if got := len(h.LiveHandles()); got != 1 {
		t.Fatalf("expected the stale handle to stay registered, got %d", got)
	}
	h.CollectGarbage()
	requireDead(t, h, addr, "cell behind a stale handle")

	hd.Release()
	if got := len(h.LiveHandles()); got != 0 {
		t.Fatalf("expected no handles after release, got %d", got)
	}
}

func Test_Heap_DeferGCPostponesCycle(t *testing.T) {
	h := newTestHeap(t)

	o := newObject(t, h, "pinned")
	addr := o.Address()

	undefer := h.DeferGC()
	h.CollectGarbage()
	requireLive(t, h, addr, "cell while collection is deferred")

	undefer()
	requireDead(t, h, addr, "cell after the deferral ended")
}

func Test_Heap_DeferGCNests(t *testing.T) {
	h := newTestHeap(t)

	o := newObject(t, h, "pinned")
	addr := o.Address()

	outer := h.DeferGC()
	inner := h.DeferGC()
	h.CollectGarbage()

	inner()
	requireLive(t, h, addr, "cell while the outer deferral is active")

	outer()
	requireDead(t, h, addr, "cell after both deferrals ended")
}

func Test_Heap_DeferGCUndeferIdempotent(t *testing.T) {
	h := newTestHeap(t)

	undefer := h.DeferGC()
	undefer()
	undefer() // must not unbalance the depth

	o := newObject(t, h, "x")
	addr := o.Address()
	second := h.DeferGC()
	h.CollectGarbage()
	requireLive(t, h, addr, "cell under a fresh deferral")
	second()
	requireDead(t, h, addr, "cell after the fresh deferral ended")
}

func Test_Heap_DeferGCPendingUpgradesToEverything(t *testing.T) {
	h := newTestHeap(t)

	o := newObject(t, h, "rooted")
	hd := NewHandle(o)
	defer hd.Release()
	addr := o.Address()

	undefer := h.DeferGC()
	h.CollectGarbage()
	h.CollectAllGarbage() // outranks the pending normal cycle
	requireLive(t, h, addr, "cell while collection is deferred")

	undefer()
	requireDead(t, h, addr, "rooted cell after a deferred teardown cycle")
}

func Test_Heap_CollectOnEveryAllocation(t *testing.T) {
	h := NewWithOptions(Options{CollectOnEveryAllocation: true})

	first := newObject(t, h, "first")
	firstAddr := first.Address()
	requireLive(t, h, firstAddr, "allocation that triggered the cycle")

	// The next allocation's cycle runs before the new cell exists, so it
	// reaps the unrooted first cell and never the second.
	second := newObject(t, h, "second")
	requireDead(t, h, firstAddr, "unrooted cell at the next allocation")
	requireLive(t, h, second.Address(), "the allocation that triggered the cycle")
}

func Test_Heap_CollectionThreshold(t *testing.T) {
	h := NewWithOptions(Options{CollectionThreshold: 3})

	addrs := make([]Address, 0, 3)
	for i := 0; i < 3; i++ {
		addrs = append(addrs, newObject(t, h, "filler").Address())
	}
	if got := h.Stats().TotalCollections; got != 0 {
		t.Fatalf("collection ran before the threshold: %d cycles", got)
	}

	// Crossing the threshold triggers a cycle before this allocation.
	survivor := newObject(t, h, "survivor")
	if got := h.Stats().TotalCollections; got != 1 {
		t.Fatalf("expected exactly 1 cycle after crossing the threshold, got %d", got)
	}
	for _, addr := range addrs {
		requireDead(t, h, addr, "pre-threshold filler")
	}
	requireLive(t, h, survivor.Address(), "the triggering allocation")
}

func Test_Heap_AllocationDuringSweepPanics(t *testing.T) {
	h := newTestHeap(t)

	f := Allocate[finalizable](h)
	f.onFinal = func() {
		Allocate[leaf](h)
	}

	expectPanic(t, "gc: allocation during collection", func() {
		h.CollectGarbage()
	})
}

func Test_Heap_HugeCells(t *testing.T) {
	type slab struct {
		CellBase
		data [3000]int64 // well past the largest size class
	}

	h := newTestHeap(t)
	s := Allocate[slab](h)
	s.data[0] = 1
	s.data[2999] = 2
	addr := s.Address()

	small := newObject(t, h, "small")

	if got := h.cellAt(addr); !SameCell(got, s) {
		t.Fatal("huge cell address does not resolve")
	}
	// Interior resolution must work across the wide block too.
	mid := addr + Address(1500*8)
	if got := h.cellFromPossibleAddress(mid); !SameCell(got, s) {
		t.Fatal("interior address of a huge cell does not resolve")
	}

	hd := NewHandle(s)
	h.CollectGarbage()
	requireLive(t, h, addr, "rooted huge cell")
	requireDead(t, h, small.Address(), "unrooted small cell")

	hd.Release()
	h.CollectGarbage()
	requireDead(t, h, addr, "unrooted huge cell")

	// A same-sized allocation reuses the dedicated block.
	blocksBefore := h.Stats().Blocks
	s2 := Allocate[slab](h)
	if got := h.Stats().Blocks; got != blocksBefore {
		t.Fatalf("expected dedicated block reuse, blocks went %d -> %d", blocksBefore, got)
	}
	if s2.Address() != addr {
		t.Fatalf("expected the freed slot back, got 0x%x want 0x%x", s2.Address(), addr)
	}
}

func Test_Heap_InteriorPointerResolution(t *testing.T) {
	h := newTestHeap(t)

	o := newObject(t, h, "target")
	addr := o.Address()

	if got := h.cellFromPossibleAddress(addr + 8); !SameCell(got, o) {
		t.Fatal("interior address does not resolve to its cell")
	}
	// Exact resolution only accepts heads.
	if got := h.cellAt(addr + 8); got != nil {
		t.Fatal("exact lookup accepted an interior address")
	}
	if got := h.cellFromPossibleAddress(arenaBase - 8); got != nil {
		t.Fatal("address below the arena resolved to a cell")
	}
}

func Test_Heap_EmbedderRoots(t *testing.T) {
	var vmStack []*object
	h := NewWithOptions(Options{
		CollectionThreshold: -1,
		EmbedderRoots: func(rs *RootSet) {
			for _, o := range vmStack {
				rs.AddCell(o, RootEmbedder)
			}
		},
	})

	kept := newObject(t, h, "kept")
	dropped := newObject(t, h, "dropped")
	vmStack = append(vmStack, kept)

	h.CollectGarbage()
	requireLive(t, h, kept.Address(), "embedder-rooted cell")
	requireDead(t, h, dropped.Address(), "cell outside the embedder roots")

	var kinds []RootKind
	h.EachRoot(func(ri RootInfo) bool {
		kinds = append(kinds, ri.Kind)
		return true
	})
	if len(kinds) != 1 || kinds[0] != RootEmbedder {
		t.Fatalf("expected one embedder root, got %v", kinds)
	}
	if RootEmbedder.String() != "embedder" {
		t.Fatalf("unexpected kind name %q", RootEmbedder.String())
	}

	vmStack = nil
	h.CollectGarbage()
	requireDead(t, h, kept.Address(), "cell after the embedder dropped it")
}

func Test_Heap_ForeignEdgePanics(t *testing.T) {
	h1 := newTestHeap(t)
	h2 := newTestHeap(t)

	o := newObject(t, h1, "local")
	alien := newObject(t, h2, "alien")
	o.refs = append(o.refs, alien)

	hd := NewHandle(o)
	defer hd.Release()
	expectPanic(t, "gc: edge to a cell of a foreign heap", func() {
		h1.CollectGarbage()
	})
}

func Test_Heap_ForeignRootPanics(t *testing.T) {
	h2 := newTestHeap(t)
	alien := newObject(t, h2, "alien")

	h1 := NewWithOptions(Options{
		CollectionThreshold: -1,
		EmbedderRoots: func(rs *RootSet) {
			rs.AddCell(alien, RootEmbedder)
		},
	})
	expectPanic(t, "gc: cell rooted on a foreign heap", func() {
		h1.CollectGarbage()
	})
}

func Test_Heap_EachCell(t *testing.T) {
	h := newTestHeap(t)

	want := map[string]bool{"a": true, "b": true, "c": true}
	for name := range want {
		newObject(t, h, name)
	}

	var lastAddr Address
	seen := 0
	h.EachCell(func(ci CellInfo) bool {
		if ci.Address <= lastAddr {
			t.Fatalf("cells out of address order: 0x%x after 0x%x", ci.Address, lastAddr)
		}
		lastAddr = ci.Address
		if ci.Size <= 0 {
			t.Fatalf("cell at 0x%x has size %d", ci.Address, ci.Size)
		}
		if o, ok := ci.Cell.(*object); !ok || !want[o.name] {
			t.Fatalf("unexpected cell %v", ci.Cell)
		}
		seen++
		return true
	})
	if seen != len(want) {
		t.Fatalf("visited %d cells, want %d", seen, len(want))
	}

	// Early stop.
	seen = 0
	h.EachCell(func(CellInfo) bool {
		seen++
		return seen < 2
	})
	if seen != 2 {
		t.Fatalf("expected traversal to stop after 2 cells, visited %d", seen)
	}
}

func Test_Heap_Stats(t *testing.T) {
	h := newTestHeap(t)

	kept := newObject(t, h, "kept")
	newObject(t, h, "swept1")
	newObject(t, h, "swept2")
	hd := NewHandle(kept)
	defer hd.Release()

	h.CollectGarbage()
	st := h.Stats()

	if st.LiveCells != 1 {
		t.Fatalf("LiveCells = %d, want 1", st.LiveCells)
	}
	if st.LiveBytes <= 0 {
		t.Fatalf("LiveBytes = %d, want > 0", st.LiveBytes)
	}
	if st.TotalAllocations != 3 {
		t.Fatalf("TotalAllocations = %d, want 3", st.TotalAllocations)
	}
	if st.TotalCollections != 1 {
		t.Fatalf("TotalCollections = %d, want 1", st.TotalCollections)
	}
	if st.TotalCellsSwept != 2 {
		t.Fatalf("TotalCellsSwept = %d, want 2", st.TotalCellsSwept)
	}
	if st.Blocks < 1 {
		t.Fatalf("Blocks = %d, want >= 1", st.Blocks)
	}
	if st.SizeClassConfig != "Balanced" {
		t.Fatalf("SizeClassConfig = %q, want Balanced", st.SizeClassConfig)
	}
	if st.LiveHandles != 1 {
		t.Fatalf("LiveHandles = %d, want 1", st.LiveHandles)
	}

	lc := st.LastCycle
	if lc.RootsGathered != 1 {
		t.Fatalf("RootsGathered = %d, want 1", lc.RootsGathered)
	}
	if lc.CellsMarked != 1 {
		t.Fatalf("CellsMarked = %d, want 1", lc.CellsMarked)
	}
	if lc.CellsSwept != 2 {
		t.Fatalf("CellsSwept = %d, want 2", lc.CellsSwept)
	}
	if lc.BytesSwept <= 0 {
		t.Fatalf("BytesSwept = %d, want > 0", lc.BytesSwept)
	}
	if lc.TotalDuration < lc.MarkDuration {
		t.Fatalf("TotalDuration %v < MarkDuration %v", lc.TotalDuration, lc.MarkDuration)
	}
}

func Test_Heap_IndependentHeaps(t *testing.T) {
	h1 := newTestHeap(t)
	h2 := newTestHeap(t)

	a := newObject(t, h1, "on-h1")
	b := newObject(t, h2, "on-h2")
	hd := NewHandle(b)
	defer hd.Release()

	// Collecting h1 must not disturb h2's population or roots.
	h1.CollectGarbage()
	requireDead(t, h1, a.Address(), "unrooted cell on the collected heap")
	requireLive(t, h2, b.Address(), "cell on the untouched heap")
}
