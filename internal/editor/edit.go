// Package editor runs an external editor on a note's content. BlockingEdit
// hands the terminal to the editor and resumes the program when it exits;
// BackgroundEdit runs the editor alongside the program. In both, the staged
// temporary file is removed once the editor is done.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
)

// Result is delivered to the program as a message when an edit finishes.
// Content is valid only when Err is nil.
type Result struct {
	NoteID     int64
	Content    string
	Changed    bool
	Background bool
	Err        error

	path string
}

// Session opens a note's content in an editor and reports back with a Result.
type Session interface {
	Edit(noteID int64, content string) tea.Cmd
}

var ErrNoEditor = errors.New("no editor configured")

// BlockingEdit suspends the program while a terminal editor runs.
type BlockingEdit struct {
	Command string
}

func (b BlockingEdit) Edit(noteID int64, content string) tea.Cmd {
	args, err := editorArgs(b.Command)
	if err != nil {
		return failed(noteID, false, err)
	}
	path, err := stage(content)
	if err != nil {
		return failed(noteID, false, err)
	}
	cmd := exec.Command(args[0], append(args[1:], path)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return collect(noteID, path, content, false, runError(args[0], err))
	})
}

// BackgroundEdit runs a GUI editor without taking over the terminal. The
// program keeps handling input until the editor process exits.
type BackgroundEdit struct {
	Command string
}

func (b BackgroundEdit) Edit(noteID int64, content string) tea.Cmd {
	args, err := editorArgs(b.Command)
	if err != nil {
		return failed(noteID, true, err)
	}
	return func() tea.Msg {
		path, err := stage(content)
		if err != nil {
			return Result{NoteID: noteID, Background: true, Err: err}
		}
		err = exec.Command(args[0], append(args[1:], path)...).Run()
		return collect(noteID, path, content, true, runError(args[0], err))
	}
}

func editorArgs(command string) ([]string, error) {
	args, err := splitCommand(command)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, ErrNoEditor
	}
	return args, nil
}

func stage(content string) (string, error) {
	f, err := os.CreateTemp("", "notes-*.md")
	if err != nil {
		return "", fmt.Errorf("stage note: %w", err)
	}
	path := f.Name()
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("stage note: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("stage note: %w", err)
	}
	return path, nil
}

// collect reads the edited file back and always removes it.
func collect(noteID int64, path, before string, background bool, runErr error) Result {
	defer func() { _ = os.Remove(path) }()

	res := Result{NoteID: noteID, Background: background, path: path}
	if runErr != nil {
		res.Err = runErr
		return res
	}
	b, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read edited note: %w", err)
		return res
	}
	res.Content = string(b)
	res.Changed = res.Content != before
	return res
}

func runError(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func failed(noteID int64, background bool, err error) tea.Cmd {
	return func() tea.Msg {
		return Result{NoteID: noteID, Background: background, Err: err}
	}
}
