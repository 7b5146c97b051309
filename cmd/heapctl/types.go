package main

import (
	"fmt"
	"sort"

	"github.com/heapkit/heapkit/snapshot"
	"github.com/spf13/cobra"
)

var (
	typesTop int
)

func init() {
	cmd := newTypesCmd()
	cmd.Flags().IntVar(&typesTop, "top", 0, "Show only the N most numerous types")
	rootCmd.AddCommand(cmd)
}

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types <snapshot>",
		Short: "Show the cell population per Go type",
		Long: `The types command breaks the snapshot's cell population down by Go
type, sorted by count. This is the first place to look when a heap grows:
the type whose count climbs between two snapshots is the one leaking.

Example:
  heapctl types heap.hksn
  heapctl types heap.hksn --top 10
  heapctl types heap.hksn --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(args)
		},
	}
	return cmd
}

type typeEntry struct {
	TypeName string
	Count    int
	Bytes    int64
}

func runTypes(args []string) error {
	s, err := snapshot.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}

	byType := make(map[string]*typeEntry)
	for _, c := range s.Cells {
		e := byType[c.TypeName]
		if e == nil {
			e = &typeEntry{TypeName: c.TypeName}
			byType[c.TypeName] = e
		}
		e.Count++
		e.Bytes += int64(c.Size)
	}

	entries := make([]typeEntry, 0, len(byType))
	for _, e := range byType {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].TypeName < entries[j].TypeName
	})
	if typesTop > 0 && len(entries) > typesTop {
		entries = entries[:typesTop]
	}

	if jsonOut {
		return printJSON(entries)
	}

	total := s.CellCount()
	printInfo("\nCells by Type: %s\n\n", args[0])
	for _, e := range entries {
		percentage := float64(e.Count) * 100.0 / float64(total)
		printInfo("  %-40s %8s cells (%5.1f%%)  %10s\n",
			e.TypeName, formatNumber(int64(e.Count)), percentage, formatBytes(e.Bytes))
	}
	printInfo("\n  Total: %s cells, %s\n", formatNumber(int64(total)), formatBytes(s.LiveBytes()))

	return nil
}
