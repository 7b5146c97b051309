package main

import (
	"path/filepath"
	"testing"
)

func TestInfoCommand(t *testing.T) {
	tests := []struct {
		name        string
		missing     bool
		wantJSON    bool
		wantErr     bool
		wantContain []string
	}{
		{
			name: "text output",
			wantContain: []string{
				"Snapshot Information",
				"Cells: 3",
				"Roots: 1",
				"Unreachable cells: 1",
			},
		},
		{
			name:        "json output",
			wantJSON:    true,
			wantContain: []string{`"Cells": 3`, `"Roots": 1`, `"Unreachable": 1`},
		},
		{
			name:    "missing file",
			missing: true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags
			quiet = false
			verbose = false
			jsonOut = tt.wantJSON

			path := writeTestSnapshot(t)
			if tt.missing {
				path = filepath.Join(t.TempDir(), "absent.hksn")
			}

			output, err := captureOutput(t, func() error {
				return runInfo([]string{path})
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runInfo() error = %v, wantErr %v\nOutput: %s", err, tt.wantErr, output)
				return
			}

			if tt.wantJSON && !tt.wantErr {
				assertJSON(t, output)
			}

			assertContains(t, output, tt.wantContain)
		})
	}
}
