package editor

import (
	"errors"
	"os"
	"strings"
	"unicode"
)

const fallbackEditor = "vim"

var errUnterminatedQuote = errors.New("unterminated quote in editor command")

// DefaultCommand picks the terminal editor: $VISUAL, then $EDITOR, then vim.
func DefaultCommand() string {
	for _, k := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return fallbackEditor
}

// GUICommand returns $GUI_EDITOR, or "" when unset.
func GUICommand() string {
	return strings.TrimSpace(os.Getenv("GUI_EDITOR"))
}

// splitCommand turns a shell-style command line into argv. Single quotes are
// literal, double quotes group words, and a backslash outside single quotes
// escapes the next rune.
func splitCommand(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
			inWord = true
		case quote == 0 && unicode.IsSpace(r):
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
