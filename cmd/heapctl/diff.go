package main

import (
	"fmt"
	"sort"

	"github.com/heapkit/heapkit/gc"
	"github.com/heapkit/heapkit/snapshot"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newDiffCmd())
}

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old-snapshot> <new-snapshot>",
		Short: "Compare two snapshots of the same heap",
		Long: `The diff command compares two snapshots, usually of the same heap at
different times, and reports per-type population changes plus the cells
added and removed in between. A type whose count only ever grows across
a series of snapshots is the usual leak signature.

Example:
  heapctl diff before.hksn after.hksn
  heapctl diff before.hksn after.hksn --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args)
		},
	}
	return cmd
}

type typeDelta struct {
	TypeName string
	Old      int
	New      int
	Delta    int
}

type snapshotDiff struct {
	OldCells   int
	NewCells   int
	OldBytes   int64
	NewBytes   int64
	Added      int
	Removed    int
	TypeDeltas []typeDelta
}

func runDiff(args []string) error {
	oldSnap, err := snapshot.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	newSnap, err := snapshot.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[1], err)
	}

	diff := snapshotDiff{
		OldCells: oldSnap.CellCount(),
		NewCells: newSnap.CellCount(),
		OldBytes: oldSnap.LiveBytes(),
		NewBytes: newSnap.LiveBytes(),
	}

	oldAddrs := make(map[gc.Address]struct{}, len(oldSnap.Cells))
	for _, c := range oldSnap.Cells {
		oldAddrs[c.Address] = struct{}{}
	}
	for _, c := range newSnap.Cells {
		if _, ok := oldAddrs[c.Address]; ok {
			delete(oldAddrs, c.Address)
		} else {
			diff.Added++
		}
	}
	diff.Removed = len(oldAddrs)

	deltas := make(map[string]*typeDelta)
	record := func(name string) *typeDelta {
		d := deltas[name]
		if d == nil {
			d = &typeDelta{TypeName: name}
			deltas[name] = d
		}
		return d
	}
	for name, n := range oldSnap.TypeCounts() {
		record(name).Old = n
	}
	for name, n := range newSnap.TypeCounts() {
		record(name).New = n
	}
	for _, d := range deltas {
		d.Delta = d.New - d.Old
		if d.Delta != 0 {
			diff.TypeDeltas = append(diff.TypeDeltas, *d)
		}
	}
	sort.Slice(diff.TypeDeltas, func(i, j int) bool {
		di, dj := diff.TypeDeltas[i], diff.TypeDeltas[j]
		if di.Delta != dj.Delta {
			return di.Delta > dj.Delta
		}
		return di.TypeName < dj.TypeName
	})

	if jsonOut {
		return printJSON(diff)
	}

	printInfo("\nSnapshot Diff: %s -> %s\n\n", args[0], args[1])
	printInfo("  Cells: %s -> %s (%+d)\n",
		formatNumber(int64(diff.OldCells)), formatNumber(int64(diff.NewCells)), diff.NewCells-diff.OldCells)
	printInfo("  Bytes: %s -> %s\n", formatBytes(diff.OldBytes), formatBytes(diff.NewBytes))
	printInfo("  Added: %d cells, removed: %d cells\n", diff.Added, diff.Removed)

	if len(diff.TypeDeltas) > 0 {
		printInfo("\nTypes that changed:\n")
		for _, d := range diff.TypeDeltas {
			printInfo("  %-40s %6d -> %-6d (%+d)\n", d.TypeName, d.Old, d.New, d.Delta)
		}
	} else {
		printInfo("\nNo per-type changes.\n")
	}

	return nil
}
