package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type outlineItemDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
	root     lipgloss.Style
	marked   lipgloss.Style
	errored  lipgloss.Style
}

func newOutlineItemDelegate() outlineItemDelegate {
	return outlineItemDelegate{
		normal: lipgloss.NewStyle(),
		selected: lipgloss.NewStyle().
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Bold(true),
		root:    lipgloss.NewStyle().Bold(true),
		marked:  lipgloss.NewStyle().Foreground(colorMarked),
		errored: lipgloss.NewStyle().Foreground(colorError),
	}
}

func (d outlineItemDelegate) Height() int                             { return 1 }
func (d outlineItemDelegate) Spacing() int                            { return 0 }
func (d outlineItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d outlineItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	width := m.Width()
	it, ok := item.(outlineRowItem)
	if width < 4 || !ok {
		fmt.Fprint(w, "")
		return
	}
	n := it.row.Node

	twisty := " "
	if n.HasChildren() {
		if n.Expanded {
			twisty = "▾"
		} else {
			twisty = "▸"
		}
	}
	line := strings.Repeat("  ", it.row.Depth) + twisty + " " + n.Label()

	style := d.normal
	switch {
	case index == m.Index():
		// Full-row background so the focused row reads at any indent.
		style = d.selected
	case n.IsError:
		style = d.errored
	case n.Marked:
		style = d.marked
	case n.IsRoot():
		style = d.root
	}
	fmt.Fprint(w, d.renderRow(width, style, line))
}

func (d outlineItemDelegate) renderRow(width int, style lipgloss.Style, line string) string {
	plainW := xansi.StringWidth(line)
	if plainW < width {
		line += strings.Repeat(" ", width-plainW)
	} else if plainW > width {
		line = xansi.Cut(line, 0, width)
	}
	return style.Render(line)
}
