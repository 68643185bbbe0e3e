package model

import "time"

// HierarchyBlock is the only hierarchy kind the client creates.
const HierarchyBlock = "block"

type Note struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TreeNote is one vertex of the note hierarchy as served by /notes/tree.
// Content is nil when the server left it out of a summary view.
type TreeNote struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Content       *string    `json:"content,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	ModifiedAt    *time.Time `json:"modified_at,omitempty"`
	HierarchyType string     `json:"hierarchy_type,omitempty"`
	Children      []TreeNote `json:"children"`
	Tags          []Tag      `json:"tags,omitempty"`
}

func (n TreeNote) IsLeaf() bool { return len(n.Children) == 0 }

type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NoteUpdate carries the fields of a partial update; nil fields are left untouched.
type NoteUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type DeleteNoteResponse struct {
	Message   string `json:"message"`
	DeletedID int64  `json:"deleted_id"`
}

type AttachNoteRequest struct {
	ChildNoteID   int64  `json:"child_note_id"`
	ParentNoteID  int64  `json:"parent_note_id"`
	HierarchyType string `json:"hierarchy_type"`
}

type HierarchyRelation struct {
	ParentID int64 `json:"parent_id"`
	ChildID  int64 `json:"child_id"`
}

type RenderMarkdownRequest struct {
	Content string `json:"content"`
	Format  string `json:"format,omitempty"`
}
