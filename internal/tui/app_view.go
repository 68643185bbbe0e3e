package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) View() string {
	if m.width == 0 {
		return ""
	}
	switch m.modal {
	case modalConfirmDelete:
		body := fmt.Sprintf("Delete %q? Its children move to the root level.", m.confirmName)
		return m.placeCentered(renderConfirmModal(m.width, "Delete note", body))
	case modalJump:
		return m.placeCentered(m.jump.view(m.width))
	}

	treeW := min(m.treeWidth(), m.width)
	sep := lipgloss.NewStyle().
		Foreground(colorBorder).
		Render(strings.TrimRight(strings.Repeat("│\n", m.viewer.Height), "\n"))
	viewer := lipgloss.NewStyle().PaddingLeft(1).Render(m.viewer.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(treeW).Render(m.tree.View()), " ", sep, viewer)

	return lipgloss.JoinVertical(lipgloss.Left, m.tabBar(), body, m.statusLine(), m.help.View(m.keys))
}

func (m *appModel) placeCentered(s string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

// tabBar shows every tab with the active one highlighted, then the mode flags.
func (m *appModel) tabBar() string {
	active := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)
	idle := lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted)

	tabs := make([]string, 0, m.state.Tabs.Len())
	for i := range m.state.Tabs.Sessions() {
		label := fmt.Sprintf("Tab %d", i+1)
		if i == m.state.Tabs.Active() {
			tabs = append(tabs, active.Render(label))
			continue
		}
		tabs = append(tabs, idle.Render(label))
	}

	var flags []string
	if !m.state.Following() {
		flags = append(flags, "no-follow")
	}
	if m.state.AutoSyncGUI {
		flags = append(flags, "auto-sync")
	}
	if n := m.state.Marks.Len(); n > 0 {
		flags = append(flags, fmt.Sprintf("%d marked", n))
	}
	if q := m.session().Query(); q.Active() || q.Flat {
		flags = append(flags, describeQuery(q.Filter, q.Search, q.Flat))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if len(flags) > 0 {
		bar += "  " + styleMuted().Render(strings.Join(flags, " · "))
	}
	return bar
}

func describeQuery(filter, search string, flat bool) string {
	var parts []string
	if search != "" {
		parts = append(parts, fmt.Sprintf("search %q", search))
	}
	if filter != "" {
		parts = append(parts, fmt.Sprintf("filter %q", filter))
	}
	if flat {
		parts = append(parts, "flat")
	}
	return strings.Join(parts, " ")
}

// statusLine is the dialog input while one is open, otherwise the latest notice.
func (m *appModel) statusLine() string {
	if m.state.DialogMode() != modeBrowsing {
		return m.input.View()
	}
	if m.notice == "" {
		return ""
	}
	return noticeStyle(m.noticeLevel).Render(m.notice)
}
