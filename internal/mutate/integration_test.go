package mutate_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"notes-tui/internal/devserver"
	"notes-tui/internal/model"
	"notes-tui/internal/mutate"
	"notes-tui/internal/notestore"
	"notes-tui/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	srv   *devserver.Server
	tabs  *session.Manager
	coord *mutate.Coordinator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv, err := devserver.New(nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})

	client := notestore.NewClient(ts.URL, 5*time.Second)
	marks := mutate.NewMarkSet()
	tabs := session.NewManager(client, marks.Has, nil)
	return &harness{
		srv:   srv,
		tabs:  tabs,
		coord: mutate.NewCoordinator(client, tabs, marks, nil),
	}
}

func (h *harness) note(t *testing.T, title string, parent int64) int64 {
	t.Helper()
	n, err := h.srv.CreateNote(context.Background(), title, "")
	require.NoError(t, err)
	if parent != 0 {
		require.NoError(t, h.srv.Attach(context.Background(), n.ID, parent))
	}
	return n.ID
}

func childTitles(n model.TreeNote) []string {
	var out []string
	for _, c := range n.Children {
		out = append(out, c.Title)
	}
	return out
}

func findTree(notes []model.TreeNote, id int64) *model.TreeNote {
	for i := range notes {
		if notes[i].ID == id {
			return &notes[i]
		}
		if n := findTree(notes[i].Children, id); n != nil {
			return n
		}
	}
	return nil
}

func TestPasteMarkedNotesUnderTarget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := h.note(t, "P", 0)
	x := h.note(t, "X", p)
	y := h.note(t, "Y", 0)
	z := h.note(t, "Z", 0)
	h.tabs.RefreshCurrent(ctx)
	tree := h.tabs.Current().Tree

	_, err := h.coord.MarkForMove(ctx, tree.Find(x))
	require.NoError(t, err)
	tree = h.tabs.Current().Tree
	_, err = h.coord.MarkForMove(ctx, tree.Find(y))
	require.NoError(t, err)
	tree = h.tabs.Current().Tree
	assert.True(t, tree.Find(x).Marked)

	res, err := h.coord.PasteAsChildren(ctx, tree.Find(z))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Moved)
	assert.Zero(t, h.coord.Marks().Len())

	raw, err := h.srv.Tree(ctx)
	require.NoError(t, err)
	require.NotNil(t, findTree(raw, p), "former parent must survive")
	assert.Empty(t, findTree(raw, p).Children)
	assert.Equal(t, []string{"X", "Y"}, childTitles(*findTree(raw, z)))

	view := h.tabs.Current().Tree
	assert.Equal(t, z, view.Find(x).Parent().ID)
	assert.False(t, view.Find(x).Marked)
}

func TestPromoteAndDemoteRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.note(t, "A", 0)
	b := h.note(t, "B", a)
	c := h.note(t, "C", b)
	h.tabs.RefreshCurrent(ctx)

	_, err := h.coord.Promote(ctx, h.tabs.Current().Tree.Find(c))
	require.NoError(t, err)
	assert.Equal(t, a, h.tabs.Current().Tree.Find(c).Parent().ID)

	_, err = h.coord.Demote(ctx, h.tabs.Current().Tree.Find(c))
	require.NoError(t, err)
	assert.Equal(t, b, h.tabs.Current().Tree.Find(c).Parent().ID)

	_, err = h.coord.Promote(ctx, h.tabs.Current().Tree.Find(b))
	require.NoError(t, err)
	assert.True(t, h.tabs.Current().Tree.Find(b).Parent().IsRoot())
}

func TestCreateAndDeleteThroughStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.note(t, "A", 0)
	h.tabs.RefreshCurrent(ctx)

	n, err := h.coord.CreateNote(ctx, h.tabs.Current().Tree.Find(a))
	require.NoError(t, err)
	created := h.tabs.Current().Tree.Find(n.ID)
	require.NotNil(t, created)
	assert.Equal(t, a, created.Parent().ID)

	h.tabs.Current().Viewer = session.Viewer{NoteID: n.ID, Shown: true}
	require.NoError(t, h.coord.DeleteNote(ctx, created))
	assert.Nil(t, h.tabs.Current().Tree.Find(n.ID))
	assert.False(t, h.tabs.Current().Viewer.Shown)
}
