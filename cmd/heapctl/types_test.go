package main

import (
	"testing"
)

func TestTypesCommand(t *testing.T) {
	tests := []struct {
		name        string
		top         int
		wantJSON    bool
		wantContain []string
	}{
		{
			name:        "text output",
			wantContain: []string{"*main.wlNode", "cells (100.0%)", "Total: 3 cells"},
		},
		{
			name:        "top keeps the most numerous",
			top:         1,
			wantContain: []string{"*main.wlNode"},
		},
		{
			name:        "json output",
			wantJSON:    true,
			wantContain: []string{`"TypeName": "*main.wlNode"`, `"Count": 3`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags
			quiet = false
			verbose = false
			jsonOut = tt.wantJSON
			typesTop = tt.top

			path := writeTestSnapshot(t)

			output, err := captureOutput(t, func() error {
				return runTypes([]string{path})
			})
			if err != nil {
				t.Fatalf("runTypes() error = %v\nOutput: %s", err, output)
			}

			if tt.wantJSON {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestLeaksCommand(t *testing.T) {
	// Reset flags
	quiet = false
	verbose = false
	jsonOut = false

	path := writeTestSnapshot(t)

	output, err := captureOutput(t, func() error {
		return runLeaks([]string{path})
	})
	if err != nil {
		t.Fatalf("runLeaks() error = %v\nOutput: %s", err, output)
	}

	// One cell in the fixture is unrooted.
	assertContains(t, output, []string{"Unreachable Cells", "*main.wlNode", "Total: 1 cells"})
}

func TestDiffCommand(t *testing.T) {
	// Reset flags
	quiet = false
	verbose = false
	jsonOut = false

	oldPath := writeTestSnapshot(t)
	newPath := writeGrownSnapshot(t, 2)

	output, err := captureOutput(t, func() error {
		return runDiff([]string{oldPath, newPath})
	})
	if err != nil {
		t.Fatalf("runDiff() error = %v\nOutput: %s", err, output)
	}

	assertContains(t, output, []string{
		"Snapshot Diff",
		"Cells: 3 -> 5 (+2)",
		"Added: 2 cells, removed: 0 cells",
		"*main.wlNode",
		"(+2)",
	})
}
