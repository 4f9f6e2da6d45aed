package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/diff"
	"github.com/colonyops/gramcheck/internal/core/styles"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(styles.MutedStyle.Render("No corrections."))
		b.WriteString("\n")
	}
	for i, c := range m.items {
		b.WriteString(m.renderItem(i, c))
		b.WriteString("\n")
	}

	if c, ok := m.selected(); ok {
		b.WriteString("\n")
		b.WriteString(m.renderDetail(c))
		b.WriteString("\n")
	}

	if m.showView && m.view != "" {
		b.WriteString("\n")
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderTitle() string {
	var pending, rejected int
	for _, c := range m.items {
		if c.IsRejected {
			rejected++
		} else {
			pending++
		}
	}

	title := "gramcheck"
	if m.sheet != "" {
		title += " " + styles.IconDot + " " + m.sheet
	}
	counts := fmt.Sprintf("%d pending, %d rejected", pending, rejected)
	return styles.TitleStyle.Render(title) + "  " + styles.MutedStyle.Render(counts)
}

func (m Model) renderItem(i int, c correction.Correction) string {
	cursor := " "
	cell := styles.NormalStyle.Render(fmt.Sprintf("%-6s", c.CellID))
	if i == m.cursor {
		cursor = styles.SelectedStyle.Render(styles.IconCursor)
		cell = styles.SelectedStyle.Render(fmt.Sprintf("%-6s", c.CellID))
	}

	icon := styles.PendingStyle.Render(styles.IconPending)
	if c.IsRejected {
		icon = styles.RejectedStyle.Render(styles.IconRejected)
	}
	if _, busy := m.busy[c.CellID]; busy {
		icon = m.spinner.View()
	}

	_, marked := m.memo.Highlight(c.OldValue, c.NewValue).Render(changedMarker())
	if c.IsRejected {
		marked = styles.RejectedStyle.Render(c.NewValue)
	}

	line := fmt.Sprintf("%s %s %s %s", cursor, icon, cell, marked)
	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return line
}

func (m Model) renderDetail(c correction.Correction) string {
	oldMarked, newMarked := m.memo.Highlight(c.OldValue, c.NewValue).Render(changedMarker())

	status := styles.PendingStyle.Render(string(c.Status()))
	if c.IsRejected {
		status = styles.RejectedStyle.Render(string(c.Status()))
	}

	body := strings.Join([]string{
		styles.LabelStyle.Render("cell") + c.CellID + "  " + status,
		styles.LabelStyle.Render("old") + oldMarked,
		styles.LabelStyle.Render("new") + newMarked,
	}, "\n")

	style := styles.DetailStyle
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	return style.Render(body)
}

func (m Model) renderStatus() string {
	var parts []string
	if m.working() {
		parts = append(parts, m.spinner.View())
	}
	if m.status != "" {
		if m.statusErr {
			parts = append(parts, styles.StatusErrStyle.Render(m.status))
		} else {
			parts = append(parts, styles.StatusOKStyle.Render(m.status))
		}
	}
	return strings.Join(parts, " ")
}

func changedMarker() diff.Marker {
	return diff.MarkerFunc(func(s string) string { return styles.ChangedTokenStyle.Render(s) })
}
