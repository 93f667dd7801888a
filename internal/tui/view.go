package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	crumbStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	itemStyle  = lipgloss.NewStyle()
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
)

// View renders one level of the tree with a breadcrumb header.
func (m AppModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("rem pages"))
	if m.Session.NavMode() {
		b.WriteString("  " + warnStyle.Render("[nav]"))
	}
	b.WriteString("\n")
	b.WriteString(crumbStyle.Render(m.ViewPath))
	b.WriteString("\n\n")

	if len(m.Children) == 0 {
		b.WriteString(countStyle.Render("  (no pages at this level)"))
		b.WriteString("\n")
	}
	for i, child := range m.Children {
		kids, _ := m.Session.Children(child.Path)
		line := child.Name
		if len(kids) > 0 {
			line += countStyle.Render(fmt.Sprintf(" (%d)", len(kids)))
		}
		if child.ID == m.Session.Current().ID {
			line += countStyle.Render(" *")
		}
		if i == m.SelectedIdx {
			b.WriteString("  " + selStyle.Render("> "+line))
		} else {
			b.WriteString("  " + itemStyle.Render("  "+line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.Mode {
	case modeCreate:
		b.WriteString("new page under " + m.ViewPath + "\n")
		b.WriteString(m.Input.View() + "\n")
	case modeRename:
		b.WriteString("move " + m.promptTarget() + " to:\n")
		b.WriteString(m.Input.View() + "\n")
	case modeDelete:
		b.WriteString(warnStyle.Render(fmt.Sprintf(
			"delete %s and its subtree (%d page(s) total)? y/n",
			m.DeleteTarget.Path, m.DeleteCount,
		)))
		b.WriteString("\n")
	default:
		if m.Err != nil {
			b.WriteString(errStyle.Render("error: "+m.Err.Error()) + "\n")
		} else if m.Status != "" {
			b.WriteString(crumbStyle.Render(m.Status) + "\n")
		}
	}

	b.WriteString(helpStyle.Render(
		"↑/↓ select · enter descend · ← up · g focus · a add · r move · d delete · n nav · q quit",
	))
	b.WriteString("\n")
	return b.String()
}

// promptTarget names the node an input prompt applies to.
func (m AppModel) promptTarget() string {
	if sel, ok := m.selected(); ok {
		return sel.Path
	}
	return m.ViewPath
}
