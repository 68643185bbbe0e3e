package mutate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"notes-tui/internal/model"
	"notes-tui/internal/notestore"
	"notes-tui/internal/outline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	calls     []string
	detachErr map[int64]error
	attachErr map[int64]error
	nextID    int64
}

func (s *recordingStore) CreateNote(_ context.Context, title, content string) (model.Note, error) {
	s.nextID++
	s.calls = append(s.calls, fmt.Sprintf("create %q", title))
	return model.Note{ID: s.nextID, Title: title, Content: content}, nil
}

func (s *recordingStore) UpdateNote(_ context.Context, id int64, upd model.NoteUpdate) (model.Note, error) {
	s.calls = append(s.calls, fmt.Sprintf("update %d", id))
	return model.Note{ID: id, Content: *upd.Content}, nil
}

func (s *recordingStore) DeleteNote(_ context.Context, id int64) (model.DeleteNoteResponse, error) {
	s.calls = append(s.calls, fmt.Sprintf("delete %d", id))
	return model.DeleteNoteResponse{DeletedID: id}, nil
}

func (s *recordingStore) Attach(_ context.Context, child, parent int64, kind string) error {
	s.calls = append(s.calls, fmt.Sprintf("attach %d %d %s", child, parent, kind))
	return s.attachErr[child]
}

func (s *recordingStore) Detach(_ context.Context, child int64) error {
	s.calls = append(s.calls, fmt.Sprintf("detach %d", child))
	return s.detachErr[child]
}

type countingView struct {
	refreshes int
	cleared   []int64
}

func (v *countingView) RefreshCurrent(context.Context) { v.refreshes++ }
func (v *countingView) ClearViewer(id int64)           { v.cleared = append(v.cleared, id) }

func tn(id int64, title string, children ...model.TreeNote) model.TreeNote {
	return model.TreeNote{ID: id, Title: title, Children: children}
}

// fixture is:
//
//	A(1)
//	  B(2)
//	    C(3)
//	  D(4)
//	E(5)
func fixture() *outline.Tree {
	return outline.Build([]model.TreeNote{
		tn(1, "A", tn(2, "B", tn(3, "C")), tn(4, "D")),
		tn(5, "E"),
	}, nil)
}

func newCoordinator() (*Coordinator, *recordingStore, *countingView) {
	st := &recordingStore{}
	v := &countingView{}
	c := NewCoordinator(st, v, nil, nil)
	c.Now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }
	return c, st, v
}

var notFound = &notestore.Error{Op: "detach", Kind: notestore.KindNotFound, Status: 404}

func TestDetach_SwallowsNoParent(t *testing.T) {
	c, st, v := newCoordinator()
	st.detachErr = map[int64]error{5: notFound}

	require.NoError(t, c.Detach(context.Background(), 5))
	assert.Equal(t, 1, v.refreshes)

	st.detachErr[5] = &notestore.Error{Op: "detach", Kind: notestore.KindUnreachable}
	assert.Error(t, c.Detach(context.Background(), 5))
}

func TestPromote_TopLevelNoteIsWarningWithoutCalls(t *testing.T) {
	c, st, v := newCoordinator()
	tr := fixture()

	_, err := c.Promote(context.Background(), tr.Find(1))
	require.ErrorIs(t, err, ErrAlreadyAtRoot)
	assert.True(t, IsWarning(err))
	assert.Empty(t, st.calls)
	assert.Zero(t, v.refreshes)
}

func TestPromote_ChildOfTopLevelBecomesRootLevel(t *testing.T) {
	c, st, v := newCoordinator()
	tr := fixture()

	msg, err := c.Promote(context.Background(), tr.Find(4))
	require.NoError(t, err)
	assert.Equal(t, "Note moved to root level", msg)
	assert.Equal(t, []string{"detach 4"}, st.calls)
	assert.Equal(t, 1, v.refreshes)
}

func TestPromote_MovesUnderGrandparent(t *testing.T) {
	c, st, _ := newCoordinator()
	tr := fixture()

	_, err := c.Promote(context.Background(), tr.Find(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"detach 3", "attach 3 1 block"}, st.calls)
}

func TestPromote_NoSelection(t *testing.T) {
	c, st, _ := newCoordinator()
	tr := fixture()

	_, err := c.Promote(context.Background(), tr.Root)
	require.ErrorIs(t, err, ErrNoSelection)
	_, err = c.Promote(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoSelection)
	assert.Empty(t, st.calls)
}

func TestDemote_FirstSiblingIsWarningWithoutCalls(t *testing.T) {
	c, st, v := newCoordinator()
	tr := fixture()

	_, err := c.Demote(context.Background(), tr.Find(2))
	require.ErrorIs(t, err, ErrNoPrevSibling)
	assert.Equal(t, "No previous sibling to attach to", err.Error())
	assert.Empty(t, st.calls)
	assert.Zero(t, v.refreshes)
}

func TestDemote_AttachesToPreviousSibling(t *testing.T) {
	c, st, v := newCoordinator()
	tr := fixture()
	st.detachErr = map[int64]error{5: notFound}

	msg, err := c.Demote(context.Background(), tr.Find(5))
	require.NoError(t, err)
	assert.Equal(t, "Moved under A", msg)
	assert.Equal(t, []string{"detach 5", "attach 5 1 block"}, st.calls)
	assert.Equal(t, 1, v.refreshes)
}

func TestMarkForMoveAndClear(t *testing.T) {
	c, _, v := newCoordinator()
	tr := fixture()
	ctx := context.Background()

	marked, err := c.MarkForMove(ctx, tr.Find(3))
	require.NoError(t, err)
	assert.True(t, marked)
	marked, err = c.MarkForMove(ctx, tr.Find(3))
	require.NoError(t, err)
	assert.False(t, marked)

	_, _ = c.MarkForMove(ctx, tr.Find(3))
	_, _ = c.MarkForMove(ctx, tr.Find(5))
	assert.Equal(t, []int64{3, 5}, c.Marks().IDs())

	assert.Equal(t, 2, c.ClearMarks(ctx))
	assert.Zero(t, c.Marks().Len())
	assert.Equal(t, 5, v.refreshes)

	assert.Zero(t, c.ClearMarks(ctx))
	assert.Equal(t, 5, v.refreshes)

	_, err = c.MarkForMove(ctx, tr.Root)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestPaste_BestEffort(t *testing.T) {
	c, st, v := newCoordinator()
	tr := fixture()
	ctx := context.Background()
	st.detachErr = map[int64]error{5: notFound}
	st.attachErr = map[int64]error{3: errors.New("boom")}

	c.Marks().Toggle(5)
	c.Marks().Toggle(3)
	c.Marks().Toggle(2)

	res, err := c.PasteAsChildren(ctx, tr.Find(4))
	require.Error(t, err)
	assert.Equal(t, 2, res.Moved)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, int64(3), res.Failed[0].NoteID)
	assert.Equal(t, []string{
		"detach 2", "attach 2 4 block",
		"detach 3", "attach 3 4 block",
		"detach 5", "attach 5 4 block",
	}, st.calls)
	assert.Zero(t, c.Marks().Len())
	assert.Equal(t, 1, v.refreshes)
}

func TestPaste_ToRootLevelSkipsAttach(t *testing.T) {
	c, st, _ := newCoordinator()
	tr := fixture()
	c.Marks().Toggle(3)

	res, err := c.PasteAsChildren(context.Background(), tr.Root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, []string{"detach 3"}, st.calls)
}

func TestPaste_OntoMarkedTargetSkipsIt(t *testing.T) {
	c, st, _ := newCoordinator()
	tr := fixture()
	c.Marks().Toggle(4)
	c.Marks().Toggle(5)

	res, err := c.PasteAsChildren(context.Background(), tr.Find(4))
	require.ErrorIs(t, err, ErrPasteOntoSelf)
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, []string{"detach 5", "attach 5 4 block"}, st.calls)
}

func TestPaste_NothingMarked(t *testing.T) {
	c, st, v := newCoordinator()
	_, err := c.PasteAsChildren(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingMarked)
	assert.Empty(t, st.calls)
	assert.Zero(t, v.refreshes)
}

func TestCreateNote(t *testing.T) {
	c, st, v := newCoordinator()
	tr := fixture()
	ctx := context.Background()

	n, err := c.CreateNote(ctx, tr.Find(2))
	require.NoError(t, err)
	assert.Equal(t, "New Note 2024-03-09 14:05:06", n.Title)
	assert.Equal(t, []string{`create "New Note 2024-03-09 14:05:06"`, "attach 1 2 block"}, st.calls)

	st.calls = nil
	_, err = c.CreateNote(ctx, tr.Root)
	require.NoError(t, err)
	assert.Equal(t, []string{`create "New Note 2024-03-09 14:05:06"`}, st.calls)
	assert.Equal(t, 2, v.refreshes)
}

func TestDeleteNote_ClearsViewer(t *testing.T) {
	c, st, v := newCoordinator()
	tr := fixture()

	require.NoError(t, c.DeleteNote(context.Background(), tr.Find(3)))
	assert.Equal(t, []string{"delete 3"}, st.calls)
	assert.Equal(t, []int64{3}, v.cleared)
	assert.Equal(t, 1, v.refreshes)

	assert.ErrorIs(t, c.DeleteNote(context.Background(), tr.Root), ErrNoSelection)
}

func TestUpdateContent(t *testing.T) {
	c, st, v := newCoordinator()
	require.NoError(t, c.UpdateContent(context.Background(), 4, "body"))
	assert.Equal(t, []string{"update 4"}, st.calls)
	assert.Equal(t, 1, v.refreshes)
}
