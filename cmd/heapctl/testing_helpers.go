package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heapkit/heapkit/gc"
	"github.com/heapkit/heapkit/snapshot"
)

// writeTestSnapshot builds a tiny heap and writes its snapshot into the
// test's temp dir: three wlNode cells, one rooted by a handle, one
// reachable through it, one unreachable.
func writeTestSnapshot(t *testing.T) string {
	t.Helper()
	return writeGrownSnapshot(t, 0)
}

// writeGrownSnapshot is writeTestSnapshot plus extra unreachable cells,
// for diffing against the base snapshot. Fresh heaps hand out the same
// addresses, so the shared cells line up across snapshots.
func writeGrownSnapshot(t *testing.T, extra int) string {
	t.Helper()

	h := gc.NewWithOptions(gc.Options{CollectionThreshold: -1})
	a := gc.Allocate[wlNode](h)
	a.id = 1
	b := gc.Allocate[wlNode](h)
	b.id = 2
	a.refs = append(a.refs, b)
	orphan := gc.Allocate[wlNode](h)
	orphan.id = 3
	for i := 0; i < extra; i++ {
		gc.Allocate[wlNode](h).id = int64(100 + i)
	}

	hd := gc.NewHandle(a)
	t.Cleanup(hd.Release)

	path := filepath.Join(t.TempDir(), "test.hksn")
	if err := snapshot.Capture(h).WriteFile(path); err != nil {
		t.Fatalf("failed to write test snapshot: %v", err)
	}
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	// Save original stdout
	origStdout := os.Stdout

	// Create a pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	// Redirect stdout to pipe
	os.Stdout = w

	// Run function
	fnErr := fn()

	// Close write end and restore stdout
	w.Close()
	os.Stdout = origStdout

	// Read captured output
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	return buf.String(), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
