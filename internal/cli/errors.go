package cli

import (
	"fmt"

	"notes-tui/internal/notestore"
)

// startupError explains why the browser refused to start.
type startupError struct {
	baseURL string
	err     error
}

func (e startupError) Error() string {
	if notestore.IsUnreachable(e.err) {
		return fmt.Sprintf("cannot reach the note service at %s: %v\nstart one with: notes dev-server --seed", e.baseURL, e.err)
	}
	return fmt.Sprintf("cannot load notes from %s: %v", e.baseURL, e.err)
}

func (e startupError) Unwrap() error { return e.err }
