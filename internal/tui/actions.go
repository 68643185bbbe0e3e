package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notes-tui/internal/editor"
	"notes-tui/internal/ipc"
	"notes-tui/internal/mutate"
	"notes-tui/internal/outline"
	"notes-tui/internal/session"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type action struct {
	name    string
	binding key.Binding
	run     func() tea.Cmd
}

// actions is the binding table: every key the outline understands while
// browsing, in match order.
func (m *appModel) actions() []action {
	k := m.keys
	return []action{
		{"cursor_down", k.Down, func() tea.Cmd { return m.moveCursor(1) }},
		{"cursor_up", k.Up, func() tea.Cmd { return m.moveCursor(-1) }},
		{"select", k.Select, m.selectNode},
		{"collapse", k.Collapse, m.collapseNode},
		{"expand", k.Expand, m.expandNode},
		{"fold_cycle", k.FoldCycle, func() tea.Cmd { return m.foldCycle(outline.CycleFoldForward) }},
		{"fold_cycle_reverse", k.FoldCycleBack, func() tea.Cmd { return m.foldCycle(outline.CycleFoldBackward) }},
		{"unfold_tree", k.UnfoldAll, m.unfoldAll},
		{"fold_to_first", k.FoldFirst, m.foldToFirst},

		{"new_tab", k.NewTab, m.newTab},
		{"close_tab", k.CloseTab, m.closeTab},
		{"next_tab", k.NextTab, func() tea.Cmd { return m.switchTab(m.state.Tabs.Next) }},
		{"prev_tab", k.PrevTab, func() tea.Cmd { return m.switchTab(m.state.Tabs.Prev) }},

		{"filter_notes", k.Filter, func() tea.Cmd { return m.fire(evOpenFilter) }},
		{"search_notes", k.Search, func() tea.Cmd { return m.fire(evOpenSearch) }},
		{"toggle_follow", k.Follow, m.toggleFollow},
		{"refresh", k.Refresh, m.refresh},
		{"toggle_flat_view", k.Flat, m.toggleFlat},

		{"promote_note", k.Promote, m.promote},
		{"demote_note", k.Demote, m.demote},
		{"mark_for_move", k.Mark, m.markForMove},
		{"paste_as_children", k.Paste, m.paste},
		{"clear_marks", k.ClearMarks, m.clearMarks},
		{"new_note", k.NewNote, m.newNote},
		{"delete_note", k.Delete, m.confirmDelete},
		{"edit_note", k.Edit, func() tea.Cmd { return m.edit(m.blocking, false) }},
		{"gui_edit_note", k.GUIEdit, func() tea.Cmd { return m.edit(m.background, true) }},
		{"yank_link", k.Yank, m.yankLink},
		{"jump", k.Jump, m.openJump},

		{"connect_gui", k.Connect, func() tea.Cmd { return m.sendNote(m.cursor().ID, false) }},
		{"toggle_auto_sync", k.AutoSync, m.toggleAutoSync},
		{"refresh_preview", k.RefreshPreview, func() tea.Cmd { return m.sendRefresh(false) }},

		{"help", k.Help, m.toggleHelp},
		{"quit", k.Quit, func() tea.Cmd { return tea.Quit }},
	}
}

// report turns an error into a notice. Refusals and an unreachable preview
// are warnings; anything else is an error.
func (m *appModel) report(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	var de *ipc.DeliveryError
	if mutate.IsWarning(err) || errors.As(err, &de) {
		return m.notify(notifyWarning, err.Error())
	}
	m.log.WithError(err).Error("action failed")
	return m.notify(notifyError, err.Error())
}

func (m *appModel) moveCursor(delta int) tea.Cmd {
	if delta > 0 {
		m.tree.CursorDown()
	} else {
		m.tree.CursorUp()
	}
	return m.highlight()
}

func (m *appModel) selectNode() tea.Cmd {
	n := m.cursor()
	if n.HasChildren() && !n.IsRoot() {
		n.Expanded = !n.Expanded
		m.syncTree()
	}
	return m.fire(evSelect)
}

// collapseNode folds the cursor node, or moves to its parent when it is
// already folded.
func (m *appModel) collapseNode() tea.Cmd {
	n := m.cursor()
	if n.HasChildren() && n.Expanded {
		n.Expanded = false
		m.syncTree()
		return nil
	}
	if p := n.Parent(); p != nil {
		m.session().CursorID = 0
		if p.HasNote() {
			m.session().CursorID = p.ID
		}
		m.syncTree()
		return m.highlight()
	}
	return nil
}

func (m *appModel) expandNode() tea.Cmd {
	n := m.cursor()
	if n.HasChildren() && !n.Expanded {
		n.Expanded = true
		m.syncTree()
	}
	return nil
}

func (m *appModel) foldCycle(cycle func(*outline.Tree, int) int) tea.Cmd {
	s := m.session()
	s.FoldLevel = cycle(s.Tree, s.FoldLevel)
	m.keepCursorVisible()
	m.syncTree()
	return tea.Batch(m.notify(notifyInfo, fmt.Sprintf("Fold level %d", s.FoldLevel)), m.highlight())
}

func (m *appModel) unfoldAll() tea.Cmd {
	s := m.session()
	outline.ExpandAll(s.Tree)
	s.FoldLevel = outline.MaxDepth(s.Tree)
	m.syncTree()
	return nil
}

func (m *appModel) foldToFirst() tea.Cmd {
	s := m.session()
	outline.FoldToLevel(s.Tree, 1)
	s.FoldLevel = 1
	m.keepCursorVisible()
	m.syncTree()
	return tea.Batch(m.notify(notifyInfo, "Folded to first level"), m.highlight())
}

func (m *appModel) newTab() tea.Cmd {
	m.state.Tabs.CreateTab(m.ctx)
	m.syncTree()
	return m.highlight()
}

func (m *appModel) closeTab() tea.Cmd {
	if !m.state.Tabs.CloseCurrent(m.ctx) {
		return m.notify(notifyWarning, "Cannot close the last tab")
	}
	m.syncTree()
	return m.highlight()
}

func (m *appModel) switchTab(move func(context.Context) bool) tea.Cmd {
	move(m.ctx)
	m.syncTree()
	return m.highlight()
}

func (m *appModel) toggleFollow() tea.Cmd {
	m.fire(evToggleFollow)
	if m.state.Following() {
		return m.notify(notifyInfo, "Follow mode enabled")
	}
	return m.notify(notifyInfo, "Follow mode disabled")
}

func (m *appModel) refresh() tea.Cmd {
	m.reload()
	if err := m.session().LoadErr; err != nil {
		return tea.Batch(m.report(err), m.highlight())
	}
	return tea.Batch(m.notify(notifyInfo, "Notes refreshed"), m.highlight())
}

func (m *appModel) toggleFlat() tea.Cmd {
	s := m.session()
	s.FlatView = !s.FlatView
	msg := "Hierarchical view"
	if s.FlatView {
		msg = "Flat view"
	}
	cmd := m.reloadAndHighlight()
	return tea.Batch(m.notify(notifyInfo, msg), cmd)
}

func (m *appModel) promote() tea.Cmd {
	msg, err := m.coord.Promote(m.ctx, m.cursor())
	m.syncTree()
	if err != nil {
		return m.report(err)
	}
	return m.notify(notifyInfo, msg)
}

func (m *appModel) demote() tea.Cmd {
	msg, err := m.coord.Demote(m.ctx, m.cursor())
	m.syncTree()
	if err != nil {
		return m.report(err)
	}
	return m.notify(notifyInfo, msg)
}

func (m *appModel) markForMove() tea.Cmd {
	n := m.cursor()
	marked, err := m.coord.MarkForMove(m.ctx, n)
	if err != nil {
		return m.report(err)
	}
	m.syncTree()
	if marked {
		return m.notify(notifyInfo, "Marked "+n.Title)
	}
	return m.notify(notifyInfo, "Unmarked "+n.Title)
}

func (m *appModel) paste() tea.Cmd {
	res, err := m.coord.PasteAsChildren(m.ctx, m.cursor())
	m.syncTree()
	if errors.Is(err, mutate.ErrNothingMarked) {
		return m.report(err)
	}
	if err != nil {
		m.log.WithError(err).Warn("paste")
		return m.notify(notifyError, fmt.Sprintf("Moved %d notes; %d failed: %v", res.Moved, len(res.Failed), res.Failed[0].Err))
	}
	return tea.Batch(m.notify(notifyInfo, fmt.Sprintf("Moved %d notes", res.Moved)), m.highlight())
}

func (m *appModel) clearMarks() tea.Cmd {
	if n := m.coord.ClearMarks(m.ctx); n > 0 {
		m.syncTree()
		return m.notify(notifyInfo, fmt.Sprintf("Cleared %d marks", n))
	}
	return nil
}

func (m *appModel) newNote() tea.Cmd {
	parent := m.cursor()
	n, err := m.coord.CreateNote(m.ctx, parent)
	if err != nil {
		m.syncTree()
		return m.report(err)
	}
	if parent.HasNote() {
		if p := m.session().Tree.Find(parent.ID); p != nil {
			p.Expanded = true
		}
	}
	m.session().CursorID = n.ID
	m.syncTree()
	text := "Created new root note"
	if parent.HasNote() {
		text = "Created new note under " + parent.Title
	}
	return tea.Batch(m.notify(notifyInfo, text), m.highlight())
}

func (m *appModel) confirmDelete() tea.Cmd {
	n := m.cursor()
	if !n.HasNote() {
		return m.report(mutate.ErrNoSelection)
	}
	m.modal = modalConfirmDelete
	m.confirmID = n.ID
	m.confirmName = n.Title
	return nil
}

// edit opens the cursor note in an editor session. Content missing from the
// tree is fetched first.
func (m *appModel) edit(s editor.Session, gui bool) tea.Cmd {
	if gui && m.opts.GUIEditor == "" {
		return m.notify(notifyWarning, "GUI_EDITOR environment variable not set")
	}
	n := m.cursor()
	if !n.HasNote() {
		return m.report(mutate.ErrNoSelection)
	}
	content, err := m.noteContent(n)
	if err != nil {
		return m.report(err)
	}
	return s.Edit(n.ID, content)
}

func (m *appModel) finishEdit(res editor.Result) tea.Cmd {
	if res.Err != nil {
		m.log.WithError(res.Err).WithField("note_id", res.NoteID).Warn("edit")
		return m.notify(notifyError, "Failed to edit note: "+res.Err.Error())
	}
	if !res.Changed {
		return m.notify(notifyInfo, "No changes")
	}
	if err := m.coord.UpdateContent(m.ctx, res.NoteID, res.Content); err != nil {
		m.syncTree()
		return m.report(err)
	}
	for _, s := range m.state.Tabs.Sessions() {
		if s.Viewer.Shown && s.Viewer.NoteID == res.NoteID {
			s.Viewer.Content = res.Content
		}
	}
	m.syncTree()
	cmds := []tea.Cmd{m.notify(notifyInfo, "Note updated")}
	if m.state.AutoSyncGUI {
		cmds = append(cmds, m.sendRefresh(true))
	}
	return tea.Batch(cmds...)
}

func (m *appModel) yankLink() tea.Cmd {
	n := m.cursor()
	if !n.HasNote() {
		return m.report(mutate.ErrNoSelection)
	}
	link := noteLink(n.ID)
	if err := m.copy(link); err != nil {
		return m.report(fmt.Errorf("copy link: %w", err))
	}
	return m.notify(notifyInfo, "Copied "+link)
}

func (m *appModel) openJump() tea.Cmd {
	m.jump.open(m.session().Tree)
	m.modal = modalJump
	return nil
}

// jumpTo reveals note id and puts the cursor on it.
func (m *appModel) jumpTo(id int64) tea.Cmd {
	s := m.session()
	n := s.Tree.Find(id)
	if n == nil {
		return m.notify(notifyWarning, "Unable to select note by id")
	}
	outline.Reveal(n)
	s.CursorID = id
	m.syncTree()
	return m.highlight()
}

func (m *appModel) toggleAutoSync() tea.Cmd {
	m.state.AutoSyncGUI = !m.state.AutoSyncGUI
	if m.state.AutoSyncGUI {
		return m.notify(notifyInfo, "Auto-sync enabled")
	}
	return m.notify(notifyInfo, "Auto-sync disabled")
}

func (m *appModel) toggleHelp() tea.Cmd {
	m.help.ShowAll = !m.help.ShowAll
	return nil
}

// showNote puts n in the active viewer.
func (m *appModel) showNote(n *outline.Node) tea.Cmd {
	if !n.HasNote() {
		return nil
	}
	content, err := m.noteContent(n)
	if err != nil {
		return m.report(err)
	}
	m.session().Viewer = session.Viewer{NoteID: n.ID, Title: n.Title, Content: content, Shown: true}
	m.renderViewer()
	return nil
}

func (m *appModel) noteContent(n *outline.Node) (string, error) {
	if n.Content != nil {
		return *n.Content, nil
	}
	note, err := m.store.GetNote(m.ctx, n.ID)
	if err != nil {
		return "", fmt.Errorf("load note %d: %w", n.ID, err)
	}
	return note.Content, nil
}

// scheduleSync sends the cursor note to the preview once the cursor has
// rested for the auto-sync delay. Earlier schedules are dropped.
func (m *appModel) scheduleSync() tea.Cmd {
	n := m.cursor()
	if !n.HasNote() {
		return nil
	}
	m.syncSeq++
	seq, id := m.syncSeq, n.ID
	if m.opts.AutoSyncDelay <= 0 {
		return func() tea.Msg { return autoSyncMsg{seq: seq, noteID: id} }
	}
	return tea.Tick(m.opts.AutoSyncDelay, func(time.Time) tea.Msg {
		return autoSyncMsg{seq: seq, noteID: id}
	})
}

// sendNote asks the preview to show note id. auto marks sends made by
// auto-sync, which succeed silently.
func (m *appModel) sendNote(id int64, auto bool) tea.Cmd {
	if id == 0 {
		return m.report(mutate.ErrNoSelection)
	}
	if err := m.send(m.opts.SocketPath, ipc.SetNote(id)); err != nil {
		return m.report(err)
	}
	if auto {
		return nil
	}
	return m.notify(notifyInfo, "Connected to GUI preview")
}

func (m *appModel) sendRefresh(auto bool) tea.Cmd {
	if err := m.send(m.opts.SocketPath, ipc.Refresh()); err != nil {
		return m.report(err)
	}
	if auto {
		return nil
	}
	return m.notify(notifyInfo, "Refreshed GUI preview")
}
