// Package ipc carries "show this note" and "refresh" events from outline
// clients to the preview process over a unix socket. Each connection carries
// exactly one JSON message.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
)

const DefaultSocketPath = "/tmp/markdown_preview.sock"

const (
	CommandSetNote = "set_note"
	CommandRefresh = "refresh"
)

type Message struct {
	Command string `json:"command"`
	NoteID  *int64 `json:"note_id,omitempty"`
}

func SetNote(id int64) Message { return Message{Command: CommandSetNote, NoteID: &id} }

func Refresh() Message { return Message{Command: CommandRefresh} }

// Known reports whether the receiver acts on m.
func (m Message) Known() bool {
	return m.Command == CommandSetNote || m.Command == CommandRefresh
}

var errMissingNoteID = errors.New("set_note without note_id")

// Decode parses one message. Unknown commands decode cleanly; callers skip them.
func Decode(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if m.Command == CommandSetNote && m.NoteID == nil {
		return Message{}, errMissingNoteID
	}
	return m, nil
}
