package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// noteLink is the wiki link form the viewer and preview understand.
func noteLink(id int64) string { return fmt.Sprintf("[[%d]]", id) }

func copyToClipboard(s string) error {
	return clipboard.WriteAll(strings.ReplaceAll(s, "\r\n", "\n"))
}
