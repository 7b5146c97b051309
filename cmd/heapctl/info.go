package main

import (
	"fmt"
	"os"
	"time"

	"github.com/heapkit/heapkit/snapshot"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <snapshot>",
		Short: "Validate a snapshot file and report basic metadata",
		Long: `The info command validates a heap snapshot file and displays basic
metadata including capture time, cell and root populations, and live bytes.

Example:
  heapctl info heap.hksn
  heapctl info heap.hksn --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type snapshotInfo struct {
	FilePath    string
	FileSize    int64
	CapturedAt  time.Time
	Cells       int
	Roots       int
	Types       int
	LiveBytes   int64
	Unreachable int
}

func runInfo(args []string) error {
	path := args[0]

	printVerbose("Opening snapshot: %s\n", path)

	s, err := snapshot.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}

	info := snapshotInfo{
		FilePath:    path,
		CapturedAt:  s.CapturedAt,
		Cells:       s.CellCount(),
		Roots:       len(s.Roots),
		Types:       len(s.TypeCounts()),
		LiveBytes:   s.LiveBytes(),
		Unreachable: len(s.UnreachableCells()),
	}
	if stat, err := os.Stat(path); err == nil {
		info.FileSize = stat.Size()
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nSnapshot Information:\n")
	printInfo("  File: %s\n", path)
	printInfo("  Size: %s\n", formatBytes(info.FileSize))
	printInfo("  Captured: %s\n", info.CapturedAt.Format("2006-01-02 15:04:05.000"))
	printInfo("\nHeap:\n")
	printInfo("  Cells: %s\n", formatNumber(int64(info.Cells)))
	printInfo("  Live bytes: %s (%s bytes)\n", formatBytes(info.LiveBytes), formatNumber(info.LiveBytes))
	printInfo("  Cell types: %d\n", info.Types)
	printInfo("  Roots: %d\n", info.Roots)
	if info.Unreachable > 0 {
		printInfo("  Unreachable cells: %d (not reclaimed yet, or leaked roots)\n", info.Unreachable)
	}

	return nil
}
