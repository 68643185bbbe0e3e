// Package mutate performs structural edits against the note store. Every
// operation that reaches the store finishes by refreshing the active view.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notes-tui/internal/model"
	"notes-tui/internal/notestore"
	"notes-tui/internal/outline"

	"github.com/sirupsen/logrus"
)

// NewNoteTitleLayout formats the timestamp of a freshly created note's title.
const NewNoteTitleLayout = "New Note 2006-01-02 15:04:05"

// Store is the write side of the note store.
type Store interface {
	CreateNote(ctx context.Context, title, content string) (model.Note, error)
	UpdateNote(ctx context.Context, id int64, upd model.NoteUpdate) (model.Note, error)
	DeleteNote(ctx context.Context, id int64) (model.DeleteNoteResponse, error)
	Attach(ctx context.Context, child, parent int64, kind string) error
	Detach(ctx context.Context, child int64) error
}

// View is the display side the coordinator reconciles after a write.
type View interface {
	RefreshCurrent(ctx context.Context)
	ClearViewer(noteID int64)
}

type Coordinator struct {
	store Store
	view  View
	marks *MarkSet
	log   logrus.FieldLogger

	// Now is the clock used for default note titles.
	Now func() time.Time
}

func NewCoordinator(store Store, view View, marks *MarkSet, log logrus.FieldLogger) *Coordinator {
	if marks == nil {
		marks = NewMarkSet()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		store: store,
		view:  view,
		marks: marks,
		log:   log.WithField("component", "mutate"),
		Now:   time.Now,
	}
}

func (c *Coordinator) Marks() *MarkSet { return c.marks }

// Attach makes child the last child of parent.
func (c *Coordinator) Attach(ctx context.Context, child, parent int64) error {
	if err := c.store.Attach(ctx, child, parent, model.HierarchyBlock); err != nil {
		return fmt.Errorf("attach note: %w", err)
	}
	c.view.RefreshCurrent(ctx)
	return nil
}

// Detach moves child to the root level. A child with no parent is not an error.
func (c *Coordinator) Detach(ctx context.Context, child int64) error {
	if err := c.detach(ctx, child); err != nil {
		return err
	}
	c.view.RefreshCurrent(ctx)
	return nil
}

func (c *Coordinator) detach(ctx context.Context, child int64) error {
	err := c.store.Detach(ctx, child)
	if err == nil || notestore.IsNotFound(err) {
		return nil
	}
	return fmt.Errorf("detach note: %w", err)
}

// Promote moves n up one level: it becomes a child of its grandparent, or a
// root-level note when its parent is root-level. It returns a notice for the user.
func (c *Coordinator) Promote(ctx context.Context, n *outline.Node) (string, error) {
	if !n.HasNote() {
		return "", ErrNoSelection
	}
	parent := n.Parent()
	if parent.IsRoot() {
		return "", ErrAlreadyAtRoot
	}
	grand := parent.Parent()

	if err := c.detach(ctx, n.ID); err != nil {
		return "", err
	}
	if grand.IsRoot() {
		c.view.RefreshCurrent(ctx)
		return "Note moved to root level", nil
	}
	if err := c.store.Attach(ctx, n.ID, grand.ID, model.HierarchyBlock); err != nil {
		c.view.RefreshCurrent(ctx)
		return "", fmt.Errorf("attach note: %w", err)
	}
	c.view.RefreshCurrent(ctx)
	return fmt.Sprintf("Moved under %s", grand.Title), nil
}

// Demote makes n the last child of the sibling directly above it.
func (c *Coordinator) Demote(ctx context.Context, n *outline.Node) (string, error) {
	if !n.HasNote() {
		return "", ErrNoSelection
	}
	prev := n.PrevSibling()
	if prev == nil || !prev.HasNote() {
		return "", ErrNoPrevSibling
	}

	if err := c.detach(ctx, n.ID); err != nil {
		return "", err
	}
	if err := c.store.Attach(ctx, n.ID, prev.ID, model.HierarchyBlock); err != nil {
		c.view.RefreshCurrent(ctx)
		return "", fmt.Errorf("attach note: %w", err)
	}
	c.view.RefreshCurrent(ctx)
	return fmt.Sprintf("Moved under %s", prev.Title), nil
}

// MarkForMove toggles n in the mark set and reports whether it is now marked.
func (c *Coordinator) MarkForMove(ctx context.Context, n *outline.Node) (bool, error) {
	if !n.HasNote() {
		return false, ErrNoSelection
	}
	marked := c.marks.Toggle(n.ID)
	c.view.RefreshCurrent(ctx)
	return marked, nil
}

// ClearMarks empties the mark set and returns how many marks were dropped.
func (c *Coordinator) ClearMarks(ctx context.Context) int {
	n := c.marks.Clear()
	if n > 0 {
		c.view.RefreshCurrent(ctx)
	}
	return n
}

// PasteResult summarizes a bulk paste.
type PasteResult struct {
	Moved  int
	Failed []MoveError
}

// PasteAsChildren moves every marked note under target, or to the root level
// when target is nil or the root. Each move is attempted independently; the
// returned error joins the failed moves.
func (c *Coordinator) PasteAsChildren(ctx context.Context, target *outline.Node) (PasteResult, error) {
	var res PasteResult
	ids := c.marks.IDs()
	if len(ids) == 0 {
		return res, ErrNothingMarked
	}
	toRoot := target == nil || !target.HasNote()

	var errs []error
	fail := func(id int64, err error) {
		me := MoveError{NoteID: id, Err: err}
		res.Failed = append(res.Failed, me)
		errs = append(errs, me)
		c.log.WithError(err).WithField("note_id", id).Warn("paste")
	}
	for _, id := range ids {
		if !toRoot && id == target.ID {
			fail(id, ErrPasteOntoSelf)
			continue
		}
		if err := c.detach(ctx, id); err != nil {
			fail(id, err)
			continue
		}
		if !toRoot {
			if err := c.store.Attach(ctx, id, target.ID, model.HierarchyBlock); err != nil {
				fail(id, fmt.Errorf("attach note: %w", err))
				continue
			}
		}
		res.Moved++
	}

	c.marks.Clear()
	c.view.RefreshCurrent(ctx)
	return res, errors.Join(errs...)
}

// CreateNote adds an empty note with a timestamp title under parent, or at
// the root level when parent is nil or the root.
func (c *Coordinator) CreateNote(ctx context.Context, parent *outline.Node) (model.Note, error) {
	title := c.Now().Format(NewNoteTitleLayout)
	n, err := c.store.CreateNote(ctx, title, "")
	if err != nil {
		return model.Note{}, fmt.Errorf("create note: %w", err)
	}
	if parent.HasNote() {
		if err := c.store.Attach(ctx, n.ID, parent.ID, model.HierarchyBlock); err != nil {
			c.view.RefreshCurrent(ctx)
			return n, fmt.Errorf("attach new note: %w", err)
		}
	}
	c.view.RefreshCurrent(ctx)
	return n, nil
}

// DeleteNote removes n from the store and clears any viewer showing it.
func (c *Coordinator) DeleteNote(ctx context.Context, n *outline.Node) error {
	if !n.HasNote() {
		return ErrNoSelection
	}
	if _, err := c.store.DeleteNote(ctx, n.ID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	c.view.ClearViewer(n.ID)
	c.view.RefreshCurrent(ctx)
	return nil
}

// UpdateContent replaces the content of note id.
func (c *Coordinator) UpdateContent(ctx context.Context, id int64, content string) error {
	if _, err := c.store.UpdateNote(ctx, id, model.NoteUpdate{Content: &content}); err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	c.view.RefreshCurrent(ctx)
	return nil
}
