package main

import (
	"fmt"
	"strconv"

	"github.com/heapkit/heapkit/gc"
	"github.com/heapkit/heapkit/snapshot"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newCellCmd())
}

func newCellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cell <snapshot> <address>",
		Short: "Show one cell with its edges and referrers",
		Long: `The cell command shows the record for a single cell: its type, size,
reachability, the cells it references, and the cells referencing it.
Addresses are accepted in hex (0x1000010) or decimal.

Example:
  heapctl cell heap.hksn 0x100000040
  heapctl cell heap.hksn 0x100000040 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCell(args)
		},
	}
	return cmd
}

type cellDetail struct {
	Address   string
	TypeName  string
	Size      int
	Reachable bool
	Rooted    bool
	Edges     []edgeDetail
	Referrers []edgeDetail
}

type edgeDetail struct {
	Address  string
	TypeName string
}

func runCell(args []string) error {
	addr, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid cell address %q: %w", args[1], err)
	}

	s, err := snapshot.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}

	c, ok := s.Lookup(gc.Address(addr))
	if !ok {
		return fmt.Errorf("no cell at 0x%x in %s", addr, args[0])
	}

	detail := cellDetail{
		Address:   fmt.Sprintf("0x%x", uint64(c.Address)),
		TypeName:  c.TypeName,
		Size:      c.Size,
		Reachable: s.Reachable(c.Address),
	}
	for _, r := range s.Roots {
		if r.Address == c.Address {
			detail.Rooted = true
			break
		}
	}
	for _, e := range c.Edges {
		detail.Edges = append(detail.Edges, describeEdge(s, e))
	}
	for _, other := range s.Cells {
		for _, e := range other.Edges {
			if e == c.Address {
				detail.Referrers = append(detail.Referrers, describeEdge(s, other.Address))
				break
			}
		}
	}

	if jsonOut {
		return printJSON(detail)
	}

	printInfo("\nCell %s\n", detail.Address)
	printInfo("  Type: %s\n", detail.TypeName)
	printInfo("  Size: %d bytes\n", detail.Size)
	printInfo("  Reachable: %v\n", detail.Reachable)
	printInfo("  Directly rooted: %v\n", detail.Rooted)

	printInfo("\nEdges (%d):\n", len(detail.Edges))
	for _, e := range detail.Edges {
		printInfo("  -> %-14s %s\n", e.Address, e.TypeName)
	}
	printInfo("\nReferrers (%d):\n", len(detail.Referrers))
	for _, e := range detail.Referrers {
		printInfo("  <- %-14s %s\n", e.Address, e.TypeName)
	}

	return nil
}

func describeEdge(s *snapshot.Snapshot, addr gc.Address) edgeDetail {
	e := edgeDetail{Address: fmt.Sprintf("0x%x", uint64(addr))}
	if c, ok := s.Lookup(addr); ok {
		e.TypeName = c.TypeName
	}
	return e
}
