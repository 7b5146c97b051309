package main

import (
	"fmt"
	"sort"

	"github.com/heapkit/heapkit/gc"
	"github.com/heapkit/heapkit/snapshot"
	"github.com/spf13/cobra"
)

var (
	rootsKind string
)

func init() {
	cmd := newRootsCmd()
	cmd.Flags().
		StringVar(&rootsKind, "kind", "", "Only roots of this kind (handle, marked-vector, conservative-vector, embedder)")
	rootCmd.AddCommand(cmd)
}

func newRootsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roots <snapshot>",
		Short: "List the recorded roots with their provenance",
		Long: `The roots command lists every root the snapshot recorded, with the
cell it pins, the root's kind, and for handles and vectors the source
location that created the registration.

Example:
  heapctl roots heap.hksn
  heapctl roots heap.hksn --kind handle
  heapctl roots heap.hksn --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoots(args)
		},
	}
	return cmd
}

type rootEntry struct {
	Address  string
	Kind     string
	TypeName string
	Location string
}

func runRoots(args []string) error {
	s, err := snapshot.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}

	entries := make([]rootEntry, 0, len(s.Roots))
	for _, r := range s.Roots {
		if rootsKind != "" && r.Kind.String() != rootsKind {
			continue
		}
		e := rootEntry{
			Address: fmt.Sprintf("0x%x", uint64(r.Address)),
			Kind:    r.Kind.String(),
		}
		if c, ok := s.Lookup(r.Address); ok {
			e.TypeName = c.TypeName
		}
		if r.File != "" {
			e.Location = fmt.Sprintf("%s:%d", r.File, r.Line)
		}
		entries = append(entries, e)
	}
	// Roots arrive in address order; a stable sort groups them by kind
	// without disturbing that.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Kind < entries[j].Kind
	})

	if jsonOut {
		return printJSON(entries)
	}

	byKind := s.RootsByKind()
	printInfo("\nRoots: %s\n\n", args[0])
	for _, e := range entries {
		printInfo("  %-14s %-20s %-36s %s\n", e.Address, e.Kind, e.TypeName, e.Location)
	}
	printInfo("\n  Total: %d roots", len(s.Roots))
	kinds := make([]gc.RootKind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		printInfo(", %d %s", byKind[k], k)
	}
	printInfo("\n")

	return nil
}
