package main

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/heapkit/heapkit/gc"
	"github.com/heapkit/heapkit/snapshot"
)

// demoCell is the fixture cell type tests build snapshots from.
type demoCell struct {
	gc.CellBase
	next *demoCell
}

func (c *demoCell) VisitEdges(v gc.Visitor) {
	if c.next != nil {
		v.Visit(c.next)
	}
}

// holder gives the type table a second row and roots part of the chain.
type holder struct {
	gc.CellBase
	kept *demoCell
}

func (h *holder) VisitEdges(v gc.Visitor) {
	if h.kept != nil {
		v.Visit(h.kept)
	}
}

// writeTestSnapshot builds a deterministic snapshot file: a rooted
// holder keeping a two-cell chain alive, plus one unreachable demoCell.
func writeTestSnapshot(t *testing.T) string {
	t.Helper()

	h := gc.NewWithOptions(gc.Options{CollectionThreshold: -1})
	a := gc.Allocate[demoCell](h)
	b := gc.Allocate[demoCell](h)
	a.next = b
	gc.Allocate[demoCell](h) // unreachable
	root := gc.Allocate[holder](h)
	root.kept = a

	handle := gc.NewHandle(root)
	t.Cleanup(handle.Release)

	path := filepath.Join(t.TempDir(), "heap.hksn")
	if err := snapshot.Capture(h).WriteFile(path); err != nil {
		t.Fatalf("failed to write test snapshot: %v", err)
	}
	return path
}

// TestHelper provides utilities for testing TUI components
type TestHelper struct {
	model Model
}

// NewTestHelper creates a test helper over a fresh fixture snapshot
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	h := &TestHelper{model: NewModel(writeTestSnapshot(t))}
	h.SendWindowSize(120, 40)
	return h
}

// SendKey simulates a key press, discarding any resulting command
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	msg := tea.KeyMsg{Type: keyType}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	msg := tea.WindowSizeMsg{Width: width, Height: height}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// GetModel returns the current model state
func (h *TestHelper) GetModel() Model {
	return h.model
}
