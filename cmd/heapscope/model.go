package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/heapkit/heapkit/gc"
	"github.com/heapkit/heapkit/snapshot"
)

// Pane represents which pane is focused
type Pane int

const (
	TypesPane Pane = iota
	CellsPane
)

// InputMode represents different input modes
type InputMode int

const (
	NormalMode InputMode = iota
	FilterMode
)

// Layout constants
const (
	headerHeight = 2 // Title plus snapshot path line
	statusHeight = 1
	detailHeight = 8 // Lines reserved for the cell detail block
)

// Model is the main application model
type Model struct {
	snapPath string
	snap     *snapshot.Snapshot

	// Inverted indexes built once at load: who references a cell, which
	// cells no root reaches, and the kind of root pinning a cell.
	referrers   map[gc.Address][]gc.Address
	unreachable map[gc.Address]bool
	rootKinds   map[gc.Address]gc.RootKind

	keys      KeyMap
	typeTable table.Model
	cellTable table.Model

	// Row index to identity mappings, rebuilt with the tables
	typeNames []string
	cellAddrs []gc.Address

	focusedPane Pane
	width       int
	height      int

	// Input modes
	inputMode InputMode
	filter    string

	unreachableOnly bool

	// Help overlay
	showHelp bool

	// Status message for temporary feedback
	statusMessage string

	err error
}

// NewModel creates a new TUI model
func NewModel(snapPath string) Model {
	m := Model{
		snapPath:    snapPath,
		keys:        DefaultKeyMap(),
		focusedPane: TypesPane,
		inputMode:   NormalMode,
	}

	snap, err := snapshot.Open(snapPath)
	if err != nil {
		m.err = err
		return m
	}
	m.snap = snap

	m.referrers = make(map[gc.Address][]gc.Address)
	for _, c := range snap.Cells {
		for _, e := range c.Edges {
			m.referrers[e] = append(m.referrers[e], c.Address)
		}
	}
	m.unreachable = make(map[gc.Address]bool)
	for _, c := range snap.UnreachableCells() {
		m.unreachable[c.Address] = true
	}
	m.rootKinds = make(map[gc.Address]gc.RootKind, len(snap.Roots))
	for _, r := range snap.Roots {
		m.rootKinds[r.Address] = r.Kind
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(primaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(primaryColor).
		Bold(true)

	m.typeTable = table.New(
		table.WithColumns(typeColumns(40)),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	m.typeTable.SetStyles(styles)

	m.cellTable = table.New(
		table.WithColumns(cellColumns()),
		table.WithHeight(12),
	)
	m.cellTable.SetStyles(styles)

	m.rebuildTypeRows()
	m.rebuildCellRows()
	return m
}

func typeColumns(nameWidth int) []table.Column {
	return []table.Column{
		{Title: "Type", Width: nameWidth},
		{Title: "Cells", Width: 8},
		{Title: "Bytes", Width: 10},
	}
}

func cellColumns() []table.Column {
	return []table.Column{
		{Title: "Address", Width: 14},
		{Title: "Size", Width: 7},
		{Title: "Edges", Width: 6},
		{Title: "Reachable", Width: 9},
	}
}

// rebuildTypeRows recomputes the per-type aggregation under the current
// filter and unreachable toggle.
func (m *Model) rebuildTypeRows() {
	type agg struct {
		count int
		bytes int64
	}
	byType := make(map[string]*agg)
	for _, c := range m.snap.Cells {
		if m.unreachableOnly && !m.unreachable[c.Address] {
			continue
		}
		if m.filter != "" &&
			!strings.Contains(strings.ToLower(c.TypeName), strings.ToLower(m.filter)) {
			continue
		}
		a := byType[c.TypeName]
		if a == nil {
			a = &agg{}
			byType[c.TypeName] = a
		}
		a.count++
		a.bytes += int64(c.Size)
	}

	names := make([]string, 0, len(byType))
	for name := range byType {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := byType[names[i]].count, byType[names[j]].count
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})

	rows := make([]table.Row, len(names))
	for i, name := range names {
		a := byType[name]
		rows[i] = table.Row{name, fmt.Sprintf("%d", a.count), formatSize(a.bytes)}
	}
	m.typeNames = names
	m.typeTable.SetRows(rows)
	if m.typeTable.Cursor() >= len(rows) {
		m.typeTable.SetCursor(0)
	}
}

// rebuildCellRows lists the cells of the selected type.
func (m *Model) rebuildCellRows() {
	selected := m.selectedType()
	rows := make([]table.Row, 0, 64)
	m.cellAddrs = m.cellAddrs[:0]
	if selected != "" {
		for _, c := range m.snap.Cells {
			if c.TypeName != selected {
				continue
			}
			if m.unreachableOnly && !m.unreachable[c.Address] {
				continue
			}
			reachable := "yes"
			if m.unreachable[c.Address] {
				reachable = "no"
			}
			rows = append(rows, table.Row{
				fmt.Sprintf("0x%x", uint64(c.Address)),
				fmt.Sprintf("%d", c.Size),
				fmt.Sprintf("%d", len(c.Edges)),
				reachable,
			})
			m.cellAddrs = append(m.cellAddrs, c.Address)
		}
	}
	m.cellTable.SetRows(rows)
	if m.cellTable.Cursor() >= len(rows) {
		m.cellTable.SetCursor(0)
	}
}

// selectedType returns the type under the type pane's cursor.
func (m *Model) selectedType() string {
	i := m.typeTable.Cursor()
	if i < 0 || i >= len(m.typeNames) {
		return ""
	}
	return m.typeNames[i]
}

// selectedCell returns the address under the cell pane's cursor.
func (m *Model) selectedCell() (gc.Address, bool) {
	i := m.cellTable.Cursor()
	if i < 0 || i >= len(m.cellAddrs) {
		return 0, false
	}
	return m.cellAddrs[i], true
}

// jumpTo moves both cursors to the cell at addr, clearing the filter if
// it hides the cell's type.
func (m *Model) jumpTo(addr gc.Address) bool {
	c, ok := m.snap.Lookup(addr)
	if !ok {
		return false
	}
	typeIdx := -1
	for i, name := range m.typeNames {
		if name == c.TypeName {
			typeIdx = i
			break
		}
	}
	if typeIdx < 0 {
		m.filter = ""
		m.unreachableOnly = false
		m.rebuildTypeRows()
		for i, name := range m.typeNames {
			if name == c.TypeName {
				typeIdx = i
				break
			}
		}
		if typeIdx < 0 {
			return false
		}
	}
	m.typeTable.SetCursor(typeIdx)
	m.rebuildCellRows()
	for i, a := range m.cellAddrs {
		if a == addr {
			m.cellTable.SetCursor(i)
			m.focusCells()
			return true
		}
	}
	return false
}

func (m *Model) focusCells() {
	m.focusedPane = CellsPane
	m.typeTable.Blur()
	m.cellTable.Focus()
}

func (m *Model) focusTypes() {
	m.focusedPane = TypesPane
	m.cellTable.Blur()
	m.typeTable.Focus()
}

// switchPane toggles focus between the two tables.
func (m *Model) switchPane() {
	if m.focusedPane == TypesPane {
		m.focusCells()
	} else {
		m.focusTypes()
	}
}

// resize recomputes pane dimensions from the terminal size.
func (m *Model) resize() {
	paneHeight := m.height - headerHeight - statusHeight - 2
	if paneHeight < 5 {
		paneHeight = 5
	}

	leftWidth := m.width / 3
	if leftWidth < 40 {
		leftWidth = 40
	}
	nameWidth := leftWidth - 22
	if nameWidth < 16 {
		nameWidth = 16
	}
	m.typeTable.SetColumns(typeColumns(nameWidth))
	m.typeTable.SetWidth(leftWidth)
	m.typeTable.SetHeight(paneHeight - 1)

	cellHeight := paneHeight - detailHeight - 1
	if cellHeight < 3 {
		cellHeight = 3
	}
	m.cellTable.SetWidth(m.width - leftWidth - 6)
	m.cellTable.SetHeight(cellHeight)
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
