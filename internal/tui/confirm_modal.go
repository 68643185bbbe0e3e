package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const modalMaxW = 64

func modalBodyWidth(width int) int {
	w := min(width-8, modalMaxW)
	return max(w, 20)
}

func renderModalBox(width int, title, body string) string {
	bodyW := modalBodyWidth(width)
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSurfaceFg).
		Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(bodyW + 2)
	return box.Render(header + "\n\n" + body)
}

// renderConfirmModal shows a yes/no question. Only y confirms.
func renderConfirmModal(width int, title, body string) string {
	btn := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	yes := btn.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true).Render("y: delete")
	no := btn.Render("n: cancel")
	controls := lipgloss.JoinHorizontal(lipgloss.Top, yes, " ", no)

	content := strings.Join([]string{
		lipgloss.NewStyle().Width(modalBodyWidth(width)).Render(body),
		"",
		controls,
	}, "\n")
	return renderModalBox(width, title, content)
}
