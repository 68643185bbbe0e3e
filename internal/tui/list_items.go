package tui

import (
	"notes-tui/internal/outline"
)

// outlineRowItem is one visible outline row in the tree list.
type outlineRowItem struct {
	row outline.Row
}

func (i outlineRowItem) FilterValue() string { return i.row.Node.Title }
func (i outlineRowItem) Title() string       { return i.row.Node.Label() }
func (i outlineRowItem) Description() string { return "" }

func (i outlineRowItem) noteID() int64 {
	if !i.row.Node.HasNote() {
		return 0
	}
	return i.row.Node.ID
}
