package main

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/heapkit/heapkit/cmd/heapscope/logger"
)

// clearStatusMsg wipes the transient status message.
type clearStatusMsg struct{}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// From the error screen only quitting makes sense.
	if m.err != nil {
		if key.Matches(msg, m.keys.Quit) || key.Matches(msg, m.keys.Esc) {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Esc) ||
			key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.inputMode == FilterMode {
		return m.updateFilterInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.switchPane()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.inputMode = FilterMode
		m.focusTypes()
		return m, nil

	case key.Matches(msg, m.keys.Unreachable):
		m.unreachableOnly = !m.unreachableOnly
		m.typeTable.SetCursor(0)
		m.cellTable.SetCursor(0)
		m.rebuildTypeRows()
		m.rebuildCellRows()
		if m.unreachableOnly {
			m.statusMessage = "Showing unreachable cells only"
		} else {
			m.statusMessage = "Showing all cells"
		}
		return m, clearStatusAfter(3 * time.Second)

	case key.Matches(msg, m.keys.Copy):
		return m.copySelection()

	case key.Matches(msg, m.keys.Enter):
		if m.focusedPane == CellsPane {
			return m.followEdge()
		}
		m.switchPane()
		return m, nil

	case key.Matches(msg, m.keys.Esc):
		if m.filter != "" || m.unreachableOnly {
			m.filter = ""
			m.unreachableOnly = false
			m.typeTable.SetCursor(0)
			m.cellTable.SetCursor(0)
			m.rebuildTypeRows()
			m.rebuildCellRows()
		}
		return m, nil
	}

	return m.updateTables(msg)
}

// updateTables routes navigation keys to the focused table. A cursor
// move in the type pane refilters the cell pane.
func (m Model) updateTables(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focusedPane == TypesPane {
		before := m.typeTable.Cursor()
		m.typeTable, cmd = m.typeTable.Update(msg)
		if m.typeTable.Cursor() != before {
			m.cellTable.SetCursor(0)
			m.rebuildCellRows()
		}
	} else {
		m.cellTable, cmd = m.cellTable.Update(msg)
	}
	return m, cmd
}

func (m Model) updateFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rebuild := func() {
		m.typeTable.SetCursor(0)
		m.cellTable.SetCursor(0)
		m.rebuildTypeRows()
		m.rebuildCellRows()
	}

	switch msg.Type {
	case tea.KeyEscape:
		m.inputMode = NormalMode
		m.filter = ""
		rebuild()

	case tea.KeyEnter:
		m.inputMode = NormalMode

	case tea.KeyBackspace:
		if len(m.filter) > 0 {
			m.filter = m.filter[:len(m.filter)-1]
			rebuild()
		}

	case tea.KeySpace:
		m.filter += " "
		rebuild()

	case tea.KeyRunes:
		m.filter += string(msg.Runes)
		rebuild()
	}

	return m, nil
}

func (m Model) copySelection() (tea.Model, tea.Cmd) {
	var text string
	if m.focusedPane == CellsPane {
		if addr, ok := m.selectedCell(); ok {
			text = fmt.Sprintf("0x%x", uint64(addr))
		}
	} else {
		text = m.selectedType()
	}
	if text == "" {
		return m, nil
	}

	if err := clipboard.WriteAll(text); err != nil {
		logger.Warn("clipboard write failed", "error", err)
		m.statusMessage = fmt.Sprintf("Clipboard unavailable: %v", err)
	} else {
		m.statusMessage = fmt.Sprintf("Copied %s", text)
	}
	return m, clearStatusAfter(3 * time.Second)
}

// followEdge jumps to the first cell the selected cell references.
func (m Model) followEdge() (tea.Model, tea.Cmd) {
	addr, ok := m.selectedCell()
	if !ok {
		return m, nil
	}
	c, ok := m.snap.Lookup(addr)
	if !ok || len(c.Edges) == 0 {
		m.statusMessage = "Cell has no edges"
		return m, clearStatusAfter(3 * time.Second)
	}
	if !m.jumpTo(c.Edges[0]) {
		m.statusMessage = fmt.Sprintf("Edge target 0x%x not in snapshot", uint64(c.Edges[0]))
		return m, clearStatusAfter(3 * time.Second)
	}
	return m, nil
}
