package gc

import "math"

// SizeClassConfig defines the cell size class strategy.
// Different configurations trade internal fragmentation against the number
// of per-class allocators a heap maintains.
type SizeClassConfig struct {
	// Name for this configuration (for stats and benchmarking)
	Name string

	// Small cell settings (linear increments)
	SmallMin       int // Minimum cell size (typically 16)
	SmallMax       int // Max for linear increments (typically 256-512)
	SmallIncrement int // Increment size for small cells (16 or 32)

	// Medium/large cell settings (logarithmic growth)
	MediumMax    int     // Largest classed cell size; above this, dedicated blocks
	GrowthFactor float64 // Exponential growth factor (1.25, 1.5, ...)
}

// Predefined configurations.
var (
	// FineGrained: many small classes, least internal fragmentation.
	// 16-256 step 16 (16 classes) + 256-16K log growth (~10 classes).
	ConfigFineGrained = SizeClassConfig{
		Name:           "FineGrained",
		SmallMin:       16,
		SmallMax:       256,
		SmallIncrement: 16,
		MediumMax:      blockSize,
		GrowthFactor:   1.5,
	}

	// Balanced: good balance between class count and wasted bytes.
	// 16-512 step 32 (16 classes) + 512-16K log growth (~9 classes).
	ConfigBalanced = SizeClassConfig{
		Name:           "Balanced",
		SmallMin:       16,
		SmallMax:       512,
		SmallIncrement: 32,
		MediumMax:      blockSize,
		GrowthFactor:   1.5,
	}

	// Coarse: few classes, faster class lookup, more internal fragmentation.
	ConfigCoarse = SizeClassConfig{
		Name:           "Coarse",
		SmallMin:       16,
		SmallMax:       512,
		SmallIncrement: 64,
		MediumMax:      blockSize,
		GrowthFactor:   2.0,
	}

	// Interpreter: tuned for typical runtime object populations, which
	// cluster heavily in the 16-192 byte range (small objects, boxed
	// values, short property maps) with a thin tail of shapes and code
	// objects.
	ConfigInterpreter = SizeClassConfig{
		Name:           "Interpreter",
		SmallMin:       16,
		SmallMax:       192,
		SmallIncrement: 16,
		MediumMax:      blockSize,
		GrowthFactor:   1.3,
	}

	// Default configuration (used if none specified).
	DefaultConfig = ConfigBalanced
)

// sizeClassTable holds the computed cell sizes, ascending.
// Unlike a range-bucketed free list, every class here has exactly one cell
// size: a request lands in the smallest class whose cell size fits it.
type sizeClassTable struct {
	config     SizeClassConfig
	cellSizes  []int
	numClasses int
}

// newSizeClassTable computes cell sizes from config.
func newSizeClassTable(config SizeClassConfig) *sizeClassTable {
	table := &sizeClassTable{
		config:    config,
		cellSizes: make([]int, 0, 32),
	}

	// Phase 1: small cells (linear increments)
	for size := config.SmallMin; size <= config.SmallMax; size += config.SmallIncrement {
		table.cellSizes = append(table.cellSizes, size)
	}

	// Phase 2: medium cells (logarithmic growth)
	size := config.SmallMax
	for size < config.MediumMax {
		nextSize := int(math.Ceil(float64(size) * config.GrowthFactor))
		if nextSize <= size {
			nextSize = size + 1 // Ensure progress
		}
		if nextSize > config.MediumMax {
			nextSize = config.MediumMax
		}
		// Cells are word-granular; keep every class 8-byte aligned.
		nextSize = alignCellSize(nextSize)
		table.cellSizes = append(table.cellSizes, nextSize)
		size = nextSize
	}

	table.numClasses = len(table.cellSizes)
	return table
}

// getSizeClass returns the class index whose cell size is the smallest
// that fits size. Returns table.numClasses for sizes > MediumMax (use a
// dedicated block).
func (t *sizeClassTable) getSizeClass(size int) int {
	lo, hi := 0, t.numClasses-1

	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.cellSizes[mid] {
			// Check if this is the smallest class that fits
			if mid == 0 || size > t.cellSizes[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	// Size is larger than all classed cells -> dedicated block
	return t.numClasses
}

// String returns a human-readable description of the size class table.
func (t *sizeClassTable) String() string {
	return t.config.Name
}

// NumClasses returns the number of size classes (excluding dedicated
// blocks).
func (t *sizeClassTable) NumClasses() int {
	return t.numClasses
}

// alignCellSize rounds size up to the 8-byte word granularity every cell
// size must have, so conservative word scanning never straddles cells.
func alignCellSize(size int) int {
	return (size + 7) &^ 7
}
