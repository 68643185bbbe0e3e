// Package session keeps the open outline tabs. Each tab has its own tree,
// viewer, fold level and filter/search state; marks live outside and are
// consulted through the Manager's marked callback.
package session

import (
	"context"
	"fmt"

	"notes-tui/internal/model"
	"notes-tui/internal/outline"

	"github.com/sirupsen/logrus"
)

// Source is the part of the note store a session reads from.
type Source interface {
	GetTree(ctx context.Context) ([]model.TreeNote, error)
	Search(ctx context.Context, query string) ([]model.Note, error)
}

// Viewer is what a session's content pane is showing.
type Viewer struct {
	NoteID  int64
	Title   string
	Content string
	Shown   bool
}

type Session struct {
	Tree       *outline.Tree
	Viewer     Viewer
	FoldLevel  int
	LastFilter string
	LastSearch string
	FlatView   bool
	// CursorID is the note under the cursor; 0 is the root row.
	CursorID int64
	// LoadErr is the error from the most recent fetch.
	LoadErr error

	// expansion is the last captured state of the plain (unprojected) tree.
	expansion outline.ExpansionSet
	// plain is true when Tree shows the whole fetched hierarchy.
	plain bool
}

func (s *Session) Query() outline.Query {
	return outline.Query{Filter: s.LastFilter, Search: s.LastSearch, Flat: s.FlatView}
}

// Cursor returns the node under the cursor, or nil when it is gone from the tree.
func (s *Session) Cursor() *outline.Node {
	if s.Tree == nil {
		return nil
	}
	if s.CursorID == 0 {
		return s.Tree.Root
	}
	return s.Tree.Find(s.CursorID)
}

func (s *Session) snapshot() {
	if s.Tree != nil && s.plain {
		s.expansion = outline.Capture(s.Tree)
	}
}

type Manager struct {
	src    Source
	marked func(int64) bool
	log    logrus.FieldLogger

	tabs   []*Session
	active int
}

// NewManager starts with one empty session. marked may be nil.
func NewManager(src Source, marked func(int64) bool, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		src:    src,
		marked: marked,
		log:    log.WithField("component", "session"),
		tabs:   []*Session{{}},
	}
}

func (m *Manager) Current() *Session { return m.tabs[m.active] }

func (m *Manager) Active() int { return m.active }

func (m *Manager) Len() int { return len(m.tabs) }

func (m *Manager) Sessions() []*Session { return m.tabs }

// CreateTab opens a new session after the last one, makes it active, and
// loads it folded to level 0.
func (m *Manager) CreateTab(ctx context.Context) {
	m.Current().snapshot()
	m.tabs = append(m.tabs, &Session{})
	m.active = len(m.tabs) - 1
	m.RefreshCurrent(ctx)
	s := m.Current()
	outline.FoldToLevel(s.Tree, 0)
	s.FoldLevel = 0
}

// SwitchTo activates tab i and reloads it. Out-of-range indexes are ignored.
func (m *Manager) SwitchTo(ctx context.Context, i int) bool {
	if i < 0 || i >= len(m.tabs) {
		return false
	}
	m.Current().snapshot()
	m.active = i
	m.RefreshCurrent(ctx)
	return true
}

func (m *Manager) Next(ctx context.Context) bool {
	return m.SwitchTo(ctx, (m.active+1)%len(m.tabs))
}

func (m *Manager) Prev(ctx context.Context) bool {
	return m.SwitchTo(ctx, (m.active-1+len(m.tabs))%len(m.tabs))
}

// CloseCurrent removes the active session and activates the one before it.
// The last remaining session cannot be closed.
func (m *Manager) CloseCurrent(ctx context.Context) bool {
	if len(m.tabs) <= 1 {
		return false
	}
	i := m.active
	m.tabs = append(m.tabs[:i], m.tabs[i+1:]...)
	m.active = max(0, i-1)
	m.RefreshCurrent(ctx)
	return true
}

// RefreshCurrent re-fetches the active session's tree and reapplies its
// projection. The plain tree keeps its expansion across the rebuild; a
// filtered or searched tree is shown fully expanded. Failures become an
// error row in the tree.
func (m *Manager) RefreshCurrent(ctx context.Context) {
	s := m.Current()
	s.snapshot()

	tree, err := m.src.GetTree(ctx)
	if err != nil {
		m.fail(s, err)
		return
	}
	q := s.Query()
	var hits []model.Note
	if q.Search != "" {
		hits, err = m.src.Search(ctx, q.Search)
		if err != nil {
			m.fail(s, fmt.Errorf("search %q: %w", q.Search, err))
			return
		}
	}

	s.LoadErr = nil
	s.Tree = outline.Build(outline.Project(tree, hits, q), m.marked)
	s.plain = !q.Active()
	if s.plain {
		outline.Restore(s.Tree, s.expansion)
	} else {
		outline.ExpandAll(s.Tree)
	}
	if s.CursorID != 0 && s.Tree.Find(s.CursorID) == nil {
		s.CursorID = 0
	}
}

func (m *Manager) fail(s *Session, err error) {
	m.log.WithError(err).Warn("load notes")
	s.LoadErr = err
	s.Tree = outline.ErrorTree(err)
	s.plain = false
	s.CursorID = 0
}

// ClearViewer empties every viewer that is showing id.
func (m *Manager) ClearViewer(id int64) {
	for _, s := range m.tabs {
		if s.Viewer.Shown && s.Viewer.NoteID == id {
			s.Viewer = Viewer{}
		}
	}
}
