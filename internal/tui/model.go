// Package tui is the terminal browser over the page hierarchy: one level
// per screen, with add/rename/delete intents prompted inline.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/devidw/rem/internal/pagetree"
	"github.com/devidw/rem/internal/session"
)

type mode int

const (
	modeBrowse mode = iota
	modeCreate
	modeRename
	modeDelete
)

// AppModel holds the TUI state.
type AppModel struct {
	Session *session.Session

	// Data
	ViewPath string // the level being browsed
	Children []pagetree.Node

	// UI state
	SelectedIdx int
	Mode        mode
	Input       textinput.Model
	Status      string
	Err         error
	WindowSize  tea.WindowSizeMsg

	// Delete confirmation context
	DeleteTarget pagetree.Node
	DeleteCount  int // target plus descendants
}

// InitialModel returns the browser rooted at "/".
func InitialModel(sess *session.Session) AppModel {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 48

	m := AppModel{
		Session:  sess,
		ViewPath: "/",
		Input:    ti,
	}
	m.refresh()
	return m
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

// refresh re-queries the current level and clamps the selection.
func (m *AppModel) refresh() {
	kids, err := m.Session.Children(m.ViewPath)
	if err != nil {
		// The viewed level vanished under us; fall back to the root.
		m.ViewPath = "/"
		kids, _ = m.Session.Children("/")
	}
	m.Children = kids
	if m.SelectedIdx >= len(m.Children) {
		m.SelectedIdx = len(m.Children) - 1
	}
	if m.SelectedIdx < 0 {
		m.SelectedIdx = 0
	}
}

func (m AppModel) selected() (pagetree.Node, bool) {
	if len(m.Children) == 0 {
		return pagetree.Node{}, false
	}
	return m.Children[m.SelectedIdx], true
}
