// Package tui is the terminal browser: an outline of the note hierarchy in
// tabs, a markdown viewer, and the key bindings that drive the mutation
// coordinator and the preview connection.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return errors.New("tui: no note store")
	}
	applyColorProfilePreference()
	applyThemePreference(opts.MarkdownStyle)

	m := newAppModel(ctx, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
