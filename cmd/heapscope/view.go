package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/heapkit/heapkit/gc"
)

// staticView wraps an already rendered string as a tea.Model so the
// overlay package can composite it.
type staticView struct {
	content string
}

func (v staticView) Init() tea.Cmd { return nil }

func (v staticView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }

func (v staticView) View() string { return v.content }

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	main := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderStatus(),
	)

	if m.showHelp {
		help := overlay.New(
			staticView{content: m.renderHelp()},
			staticView{content: main},
			overlay.Center,
			overlay.Center,
			0,
			0,
		)
		return help.View()
	}

	return main
}

// renderHeader renders the title line and the snapshot summary line.
func (m Model) renderHeader() string {
	title := headerStyle.Render("Heap Snapshot Explorer")
	summary := pathStyle.Render(fmt.Sprintf(
		"%s · %d cells, %d roots, captured %s",
		m.snapPath,
		m.snap.CellCount(),
		len(m.snap.Roots),
		m.snap.CapturedAt.Format("2006-01-02 15:04:05"),
	))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", summary)
}

// renderContent renders the type pane on the left and the cell pane with
// the detail block on the right.
func (m Model) renderContent() string {
	leftTitle := paneTitleStyle.Render(fmt.Sprintf("Types (%d)", len(m.typeNames)))
	left := lipgloss.JoinVertical(lipgloss.Left, leftTitle, m.typeTable.View())

	cellTitle := fmt.Sprintf("Cells (%d)", len(m.cellAddrs))
	if t := m.selectedType(); t != "" {
		cellTitle = fmt.Sprintf("Cells · %s (%d)", t, len(m.cellAddrs))
	}
	right := lipgloss.JoinVertical(
		lipgloss.Left,
		paneTitleStyle.Render(cellTitle),
		m.cellTable.View(),
		m.renderDetail(),
	)

	leftStyle, rightStyle := paneStyle, paneStyle
	if m.focusedPane == TypesPane {
		leftStyle = activePaneStyle
	} else {
		rightStyle = activePaneStyle
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftStyle.Render(left),
		rightStyle.Render(right),
	)
}

// renderDetail renders the block describing the selected cell.
func (m Model) renderDetail() string {
	addr, ok := m.selectedCell()
	if !ok {
		return detailLabelStyle.Render("\nNo cell selected.")
	}
	c, ok := m.snap.Lookup(addr)
	if !ok {
		return detailLabelStyle.Render("\nNo cell selected.")
	}

	reachable := reachableStyle.Render("yes")
	if m.unreachable[c.Address] {
		reachable = unreachableStyle.Render("no")
	}
	rooted := "none"
	if kind, ok := m.rootKinds[c.Address]; ok {
		rooted = kind.String()
	}

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(detailLabelStyle.Render(fmt.Sprintf("%-11s", label)))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	row("Address:", fmt.Sprintf("0x%x", uint64(c.Address)))
	row("Type:", c.TypeName)
	row("Size:", fmt.Sprintf("%d bytes", c.Size))
	b.WriteString(detailLabelStyle.Render(fmt.Sprintf("%-11s", "Reachable:")))
	b.WriteString(reachable)
	b.WriteString(detailValueStyle.Render("   root: " + rooted))
	b.WriteString("\n")
	row("Edges:", summarizeAddrs(c.Edges))
	row("Referrers:", summarizeAddrs(m.referrers[c.Address]))

	return b.String()
}

// summarizeAddrs formats up to four addresses and elides the rest.
func summarizeAddrs(addrs []gc.Address) string {
	if len(addrs) == 0 {
		return "none"
	}
	var parts []string
	for i, a := range addrs {
		if i == 4 {
			parts = append(parts, fmt.Sprintf("… %d more", len(addrs)-i))
			break
		}
		parts = append(parts, fmt.Sprintf("0x%x", uint64(a)))
	}
	return fmt.Sprintf("%d  %s", len(addrs), strings.Join(parts, ", "))
}

// renderStatus renders the bottom status bar.
func (m Model) renderStatus() string {
	if m.inputMode == FilterMode {
		return statusStyle.Render(
			filterPromptStyle.Render("/"+m.filter+"▌") +
				detailLabelStyle.Render("  (enter to keep, esc to clear)"))
	}

	left := "? help · tab pane · / filter · u unreachable · c copy · q quit"
	if m.statusMessage != "" {
		left = statusMessageStyle.Render(m.statusMessage)
	}
	if m.filter != "" {
		left += detailLabelStyle.Render(fmt.Sprintf("  [filter: %s]", m.filter))
	}
	if m.unreachableOnly {
		left += unreachableStyle.Render("  [unreachable only]")
	}
	return statusStyle.Render(left)
}

// renderHelp renders the help modal's content.
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(helpKeyStyle.Render(h.Key))
			b.WriteString(helpDescStyle.Render(h.Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(detailLabelStyle.Render("Press ? or esc to close"))
	return modalStyle.Render(b.String())
}
