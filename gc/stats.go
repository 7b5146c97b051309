package gc

import "time"

// Stats holds cumulative heap counters plus the last cycle's breakdown.
type Stats struct {
	LiveCells        int   // cells currently alive
	LiveBytes        int64 // arena bytes those cells occupy (class widths)
	TotalAllocations int64 // cells ever allocated
	TotalCollections int64 // cycles ever run
	TotalCellsSwept  int64 // cells ever destroyed

	Blocks          int    // blocks backing the arena
	SizeClasses     int    // classed allocators (dedicated blocks excluded)
	SizeClassConfig string // name of the active size class configuration

	LiveHandles    int // registered handle impls
	WeakContainers int // registered weak containers

	LastCycle CycleStats
}

// CycleStats breaks down a single collection cycle.
type CycleStats struct {
	RootsGathered int   // distinct root cells at cycle start
	CellsMarked   int   // cells reached from the roots
	CellsSwept    int   // cells destroyed
	BytesSwept    int64 // arena bytes those cells occupied

	MarkDuration  time.Duration
	WeakDuration  time.Duration
	SweepDuration time.Duration
	TotalDuration time.Duration
}
