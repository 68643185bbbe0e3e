package tui

import (
	"time"

	"notes-tui/internal/editor"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Init() tea.Cmd { return nil }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case flashDoneMsg:
		// Debounce: only clear if this is still the latest notice.
		if msg.seq == m.flashSeq {
			m.notice = ""
		}
		return m, nil

	case autoSyncMsg:
		if msg.seq != m.syncSeq || !m.state.AutoSyncGUI {
			return m, nil
		}
		return m, m.sendNote(msg.noteID, true)

	case editor.Result:
		return m, m.finishEdit(msg)

	case tea.KeyMsg:
		switch m.modal {
		case modalConfirmDelete:
			return m, m.updateConfirm(msg)
		case modalJump:
			return m, m.updateJump(msg)
		}
		if m.state.DialogMode() != modeBrowsing {
			return m, m.updateDialog(msg)
		}
		return m, m.dispatch(msg)
	}

	var cmd tea.Cmd
	m.viewer, cmd = m.viewer.Update(msg)
	return m, cmd
}

// dispatch runs the first action whose binding matches msg.
func (m *appModel) dispatch(msg tea.KeyMsg) tea.Cmd {
	for _, a := range m.actions() {
		if key.Matches(msg, a.binding) {
			m.log.WithField("op", a.name).Debug("action")
			return a.run()
		}
	}
	return nil
}

// fire feeds ev through the state machine and applies the resulting effect.
func (m *appModel) fire(ev uiEvent) tea.Cmd {
	tr, ok := step(m.state.UI, ev)
	if !ok {
		return nil
	}
	m.state.UI = tr.next
	return m.apply(tr.effect)
}

func (m *appModel) apply(e effect) tea.Cmd {
	s := m.session()
	switch e {
	case effOpenDialog:
		m.input.Prompt = "filter: "
		m.input.SetValue(s.LastFilter)
		if m.state.DialogMode() == modeSearching {
			m.input.Prompt = "search: "
			m.input.SetValue(s.LastSearch)
		}
		m.input.CursorEnd()
		return m.input.Focus()
	case effCloseDialog:
		m.input.Blur()
		return nil
	case effApplyFilter:
		s.LastFilter = m.input.Value()
		return m.reloadAndHighlight()
	case effApplySearch:
		s.LastSearch = m.input.Value()
		return m.reloadAndHighlight()
	case effShowNote:
		return m.showNote(m.cursor())
	case effShowAndSync:
		cmd := m.showNote(m.cursor())
		if m.state.AutoSyncGUI {
			return tea.Batch(cmd, m.scheduleSync())
		}
		return cmd
	}
	return nil
}

// reloadAndHighlight refreshes the active tab and raises a highlight event
// when the rebuild moved the cursor to another note.
func (m *appModel) reloadAndHighlight() tea.Cmd {
	m.reload()
	return m.highlight()
}

// highlight raises a highlight event if the cursor note changed.
func (m *appModel) highlight() tea.Cmd {
	m.storeCursor()
	id := m.session().CursorID
	if id == m.highlighted {
		return nil
	}
	m.highlighted = id
	if id == 0 {
		return nil
	}
	return m.fire(evHighlight)
}

func (m *appModel) updateDialog(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "enter":
		return m.fire(evInputSubmitted)
	case "esc":
		return m.fire(evInputCancelled)
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, m.fire(evInputChanged))
}

func (m *appModel) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		m.modal = modalNone
		n := m.session().Tree.Find(m.confirmID)
		if err := m.coord.DeleteNote(m.ctx, n); err != nil {
			m.syncTree()
			return m.report(err)
		}
		m.syncTree()
		return tea.Batch(m.notify(notifyInfo, "Deleted "+m.confirmName), m.highlight())
	case "n", "N", "esc", "q":
		m.modal = modalNone
	case "ctrl+c":
		return tea.Quit
	}
	return nil
}

func (m *appModel) updateJump(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc":
		m.modal = modalNone
		m.jump.close()
		return nil
	case "up", "ctrl+p":
		m.jump.move(-1)
		return nil
	case "down", "ctrl+n":
		m.jump.move(1)
		return nil
	case "enter":
		id := m.jump.selected()
		m.modal = modalNone
		m.jump.close()
		if id == 0 {
			return m.notify(notifyWarning, "No matching note")
		}
		return m.jumpTo(id)
	}
	before := m.jump.input.Value()
	var cmd tea.Cmd
	m.jump.input, cmd = m.jump.input.Update(msg)
	if m.jump.input.Value() != before {
		m.jump.filter()
	}
	return cmd
}

// notify shows text in the footer until a newer notice replaces it or noticeTTL passes.
func (m *appModel) notify(level notifyLevel, text string) tea.Cmd {
	m.notice = text
	m.noticeLevel = level
	m.flashSeq++
	seq := m.flashSeq
	m.log.WithField("level", level.String()).Debug(text)
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}
