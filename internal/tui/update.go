package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/devidw/rem/internal/pagetree"
)

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		return m, nil

	case tea.KeyMsg:
		switch m.Mode {
		case modeCreate, modeRename:
			return m.updateInput(msg)
		case modeDelete:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, cmd
}

func (m AppModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.Err = nil

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.SelectedIdx > 0 {
			m.SelectedIdx--
		}

	case "down", "j":
		if m.SelectedIdx < len(m.Children)-1 {
			m.SelectedIdx++
		}

	case "enter", "right", "l":
		if sel, ok := m.selected(); ok {
			m.ViewPath = sel.Path
			m.SelectedIdx = 0
			m.refresh()
		}

	case "left", "h", "backspace":
		if m.ViewPath != "/" {
			node, _ := m.Session.Find(m.ViewPath)
			m.ViewPath = pagetree.Normalize(node.ParentPath)
			m.SelectedIdx = 0
			m.refresh()
		}

	case "g":
		if sel, ok := m.selected(); ok {
			if err := m.Session.SetCurrent(sel.Path); err != nil {
				m.Err = err
			} else {
				m.Status = "focused " + sel.Path
			}
		}

	case "a":
		m.Mode = modeCreate
		m.Input.Placeholder = "new page name"
		m.Input.SetValue("")
		m.Input.Focus()

	case "r":
		if sel, ok := m.selected(); ok {
			m.Mode = modeRename
			m.Input.Placeholder = "new path"
			m.Input.SetValue(sel.Path)
			m.Input.Focus()
		}

	case "d":
		if sel, ok := m.selected(); ok {
			desc, err := m.Session.Descendants(sel.Path)
			if err != nil {
				m.Err = err
				break
			}
			m.Mode = modeDelete
			m.DeleteTarget = sel
			m.DeleteCount = 1 + len(desc)
		}

	case "n":
		m.Session.SetNavMode(!m.Session.NavMode())
	}

	return m, nil
}

func (m AppModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		value := m.Input.Value()
		mode := m.Mode
		m.Mode = modeBrowse
		m.Input.Blur()

		switch mode {
		case modeCreate:
			node, err := m.Session.CreateChild(m.ViewPath, value)
			if err != nil {
				m.Err = err
				break
			}
			m.Status = "created " + node.Path
		case modeRename:
			sel, ok := m.selected()
			if !ok {
				break
			}
			plan, err := m.Session.Rename(sel.Path, value)
			if err != nil {
				m.Err = err
				break
			}
			m.Status = fmt.Sprintf("moved to %s (%d descendants rewritten)",
				plan.Node.NewPath, len(plan.Descendants))
		}
		m.refresh()
		return m, nil

	case tea.KeyEsc:
		m.Mode = modeBrowse
		m.Input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m AppModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.Mode = modeBrowse
		plan, err := m.Session.Delete(m.DeleteTarget.Path)
		if err != nil {
			m.Err = err
		} else {
			m.Status = fmt.Sprintf("deleted %d page(s)", len(plan.Remove))
		}
		m.refresh()
	case "n", "N", "esc":
		m.Mode = modeBrowse
	}
	return m, nil
}
