package tui

type modalKind int

const (
	modalNone modalKind = iota
	modalConfirmDelete
	modalJump
)

type notifyLevel int

const (
	notifyInfo notifyLevel = iota
	notifyWarning
	notifyError
)

func (l notifyLevel) String() string {
	switch l {
	case notifyWarning:
		return "warning"
	case notifyError:
		return "error"
	default:
		return "info"
	}
}

type flashDoneMsg struct{ seq int }

// autoSyncMsg fires once the cursor has rested for the auto-sync delay. Only
// the message carrying the latest seq is sent to the preview.
type autoSyncMsg struct {
	seq    int
	noteID int64
}
