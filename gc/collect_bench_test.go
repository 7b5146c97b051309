package gc

import (
	"fmt"
	"testing"
)

// Size class configurations the benchmarks compare. Sub-benchmark names
// follow Benchmark<Operation>/<config>[/<cells>] so scripts/benchreport.go
// can group the output per configuration.
var benchConfigs = []struct {
	name   string
	config *SizeClassConfig
}{
	{"FineGrained", &ConfigFineGrained},
	{"Balanced", &ConfigBalanced},
	{"Coarse", &ConfigCoarse},
	{"Interpreter", &ConfigInterpreter},
}

// Stored to prevent dead code elimination.
var (
	benchCell  *leaf
	benchStats Stats
)

// BenchmarkAllocate measures raw allocation cost with collection disabled.
func BenchmarkAllocate(b *testing.B) {
	for _, tc := range benchConfigs {
		b.Run(tc.name, func(b *testing.B) {
			h := NewWithOptions(Options{SizeClasses: tc.config, CollectionThreshold: -1})

			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				benchCell = Allocate[leaf](h)
			}
		})
	}
}

// BenchmarkCollect measures a full cycle over a linked graph that survives
// every collection, so the mark phase dominates.
func BenchmarkCollect(b *testing.B) {
	for _, tc := range benchConfigs {
		for _, cells := range []int{1000, 10000} {
			b.Run(fmt.Sprintf("%s/%d", tc.name, cells), func(b *testing.B) {
				h := NewWithOptions(Options{SizeClasses: tc.config, CollectionThreshold: -1})
				roots := NewMarkedVector[*object](h)
				defer roots.Release()

				var prev *object
				for i := range cells {
					o := Allocate[object](h)
					o.name = fmt.Sprintf("n%d", i)
					if prev != nil {
						o.refs = append(o.refs, prev)
					}
					roots.Append(o)
					prev = o
				}

				b.ReportAllocs()
				b.ResetTimer()

				for range b.N {
					h.CollectGarbage()
				}

				benchStats = h.Stats()
			})
		}
	}
}

// BenchmarkChurn measures allocate-then-reclaim cycles where every cell in
// the batch dies, so the sweep phase dominates.
func BenchmarkChurn(b *testing.B) {
	const batch = 1000

	for _, tc := range benchConfigs {
		b.Run(tc.name, func(b *testing.B) {
			h := NewWithOptions(Options{SizeClasses: tc.config, CollectionThreshold: -1})

			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				for range batch {
					benchCell = Allocate[leaf](h)
				}
				h.CollectGarbage()
			}
		})
	}
}

// BenchmarkHandleChurn measures handle registry churn, which stresses the
// O(1) root registration path rather than the collector itself.
func BenchmarkHandleChurn(b *testing.B) {
	h := NewWithOptions(Options{CollectionThreshold: -1})
	o := Allocate[object](h)
	keep := NewHandle(o)
	defer keep.Release()

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		hd := NewHandle(o)
		hd.Release()
	}
}
