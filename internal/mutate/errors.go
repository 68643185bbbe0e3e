package mutate

import (
	"errors"
	"fmt"
)

// Warning reports an operation that was refused because of the current
// selection or state. Nothing was sent to the store.
type Warning struct {
	Msg string
}

func (w *Warning) Error() string { return w.Msg }

func IsWarning(err error) bool {
	var w *Warning
	return errors.As(err, &w)
}

var (
	ErrNoSelection   = &Warning{Msg: "No note selected"}
	ErrAlreadyAtRoot = &Warning{Msg: "Note is already at root level"}
	ErrNoPrevSibling = &Warning{Msg: "No previous sibling to attach to"}
	ErrNothingMarked = &Warning{Msg: "No notes marked for move"}
	ErrPasteOntoSelf = errors.New("cannot paste a note onto itself")
)

// MoveError is one failed move of a bulk paste.
type MoveError struct {
	NoteID int64
	Err    error
}

func (e MoveError) Error() string {
	return fmt.Sprintf("note %d: %v", e.NoteID, e.Err)
}

func (e MoveError) Unwrap() error { return e.Err }
