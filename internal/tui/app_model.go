package tui

import (
	"context"
	"time"

	"notes-tui/internal/editor"
	"notes-tui/internal/ipc"
	"notes-tui/internal/model"
	"notes-tui/internal/mutate"
	"notes-tui/internal/outline"
	"notes-tui/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// Store is everything the browser needs from the note store.
type Store interface {
	session.Source
	mutate.Store
	GetNote(ctx context.Context, id int64) (model.Note, error)
}

type Options struct {
	Store Store

	// SocketPath is where the preview listens.
	SocketPath string

	// Editor runs in the terminal; GUIEditor runs alongside the browser.
	Editor    string
	GUIEditor string

	// AutoSyncDelay is how long the cursor must rest before auto-sync sends it.
	AutoSyncDelay time.Duration

	// MarkdownStyle is auto, dark, light or notty.
	MarkdownStyle string
	Log           logrus.FieldLogger
}

const (
	noticeTTL    = 4 * time.Second
	minTreeW     = 24
	tabBarLines  = 1
	footerLines  = 2
	initialLevel = 1
)

type appModel struct {
	ctx   context.Context
	store Store
	opts  Options
	log   logrus.FieldLogger

	state *AppState
	coord *mutate.Coordinator
	keys  keyMap

	tree   list.Model
	input  textinput.Model
	viewer viewport.Model
	help   help.Model
	jump   jumpPicker

	modal       modalKind
	confirmID   int64
	confirmName string

	width  int
	height int

	notice      string
	noticeLevel notifyLevel
	flashSeq    int
	syncSeq     int
	// highlighted is the note the last highlight event was raised for.
	highlighted int64
	mdStyle     string

	blocking   editor.Session
	background editor.Session
	send       func(socketPath string, msg ipc.Message) error
	copy       func(string) error
}

func newAppModel(ctx context.Context, opts Options) appModel {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "tui")

	marks := mutate.NewMarkSet()
	tabs := session.NewManager(opts.Store, marks.Has, log)
	state := &AppState{Tabs: tabs, Marks: marks}

	tree := list.New(nil, newOutlineItemDelegate(), 0, 0)
	tree.SetShowTitle(false)
	tree.SetShowStatusBar(false)
	tree.SetShowHelp(false)
	tree.SetShowPagination(false)
	tree.SetFilteringEnabled(false)
	tree.DisableQuitKeybindings()

	in := textinput.New()
	in.CharLimit = 256

	m := appModel{
		ctx:        ctx,
		store:      opts.Store,
		opts:       opts,
		log:        log,
		state:      state,
		coord:      mutate.NewCoordinator(opts.Store, tabs, marks, log),
		keys:       defaultKeyMap(),
		tree:       tree,
		input:      in,
		viewer:     viewport.New(0, 0),
		help:       help.New(),
		jump:       newJumpPicker(),
		mdStyle:    resolveMarkdownStyle(opts.MarkdownStyle),
		blocking:   editor.BlockingEdit{Command: opts.Editor},
		background: editor.BackgroundEdit{Command: opts.GUIEditor},
		send:       ipc.Send,
		copy:       copyToClipboard,
	}

	tabs.RefreshCurrent(ctx)
	s := tabs.Current()
	outline.FoldToLevel(s.Tree, initialLevel)
	s.FoldLevel = initialLevel
	m.syncTree()
	return m
}

func (m *appModel) session() *session.Session { return m.state.Tabs.Current() }

// cursor is the node under the list cursor; the root row when the list is empty.
func (m *appModel) cursor() *outline.Node {
	if it, ok := m.tree.SelectedItem().(outlineRowItem); ok {
		return it.row.Node
	}
	return m.session().Tree.Root
}

// syncTree rebuilds the list from the active session and puts the cursor
// back on the session's cursor note, unfolding its ancestors if a move hid it.
func (m *appModel) syncTree() {
	s := m.session()
	if n := s.Cursor(); n != nil {
		outline.Reveal(n)
	}
	rows := s.Tree.Rows()
	items := make([]list.Item, len(rows))
	idx := 0
	for i, r := range rows {
		items[i] = outlineRowItem{row: r}
		if s.CursorID != 0 && r.Node.HasNote() && r.Node.ID == s.CursorID {
			idx = i
		}
	}
	m.tree.SetItems(items)
	m.tree.Select(idx)
	m.renderViewer()
}

// keepCursorVisible moves the cursor up to the nearest ancestor a fold left visible.
func (m *appModel) keepCursorVisible() {
	s := m.session()
	n := s.Cursor()
	for n != nil && !n.Visible() {
		n = n.Parent()
	}
	s.CursorID = 0
	if n.HasNote() {
		s.CursorID = n.ID
	}
}

// storeCursor records the list cursor in the session so rebuilds keep it.
func (m *appModel) storeCursor() {
	if it, ok := m.tree.SelectedItem().(outlineRowItem); ok {
		m.session().CursorID = it.noteID()
	}
}

// reload refreshes the active session and resyncs every pane.
func (m *appModel) reload() {
	m.state.Tabs.RefreshCurrent(m.ctx)
	m.syncTree()
}

func (m *appModel) treeWidth() int {
	return max(minTreeW, m.width*2/5)
}

func (m *appModel) layout() {
	bodyH := max(1, m.height-tabBarLines-footerLines)
	treeW := min(m.treeWidth(), m.width)
	m.tree.SetSize(treeW, bodyH)
	m.viewer.Width = max(0, m.width-treeW-3)
	m.viewer.Height = bodyH
	m.help.Width = m.width
	m.renderViewer()
}

// renderViewer draws the active session's viewer into the viewport.
func (m *appModel) renderViewer() {
	v := m.session().Viewer
	if !v.Shown {
		m.viewer.SetContent(styleMuted().Render("Select a note to view it."))
		return
	}
	title := lipgloss.NewStyle().Bold(true).Render(v.Title)
	m.viewer.SetContent(title + "\n\n" + renderMarkdown(v.Content, m.viewer.Width, m.mdStyle))
	m.viewer.GotoTop()
}
