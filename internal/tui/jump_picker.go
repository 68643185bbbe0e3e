package tui

import (
	"strings"

	"notes-tui/internal/outline"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

const jumpMaxRows = 10

type jumpCandidate struct {
	id   int64
	path string
}

// jumpCandidates implements fuzzy.Source over the note paths of a tree.
type jumpCandidates []jumpCandidate

func (c jumpCandidates) String(i int) string { return c[i].path }
func (c jumpCandidates) Len() int            { return len(c) }

// jumpPicker fuzzy-matches every note in the active tree by its ancestor path,
// so collapsed notes can be reached too.
type jumpPicker struct {
	input      textinput.Model
	candidates jumpCandidates
	matches    fuzzy.Matches
	index      int
}

func newJumpPicker() jumpPicker {
	in := textinput.New()
	in.Prompt = "jump: "
	in.Placeholder = "note title"
	in.CharLimit = 256
	return jumpPicker{input: in}
}

func (p *jumpPicker) open(t *outline.Tree) {
	p.candidates = p.candidates[:0]
	t.Walk(func(n *outline.Node) bool {
		if n.HasNote() {
			p.candidates = append(p.candidates, jumpCandidate{id: n.ID, path: notePath(n)})
		}
		return true
	})
	p.input.SetValue("")
	p.input.Focus()
	p.filter()
}

func (p *jumpPicker) close() {
	p.input.Blur()
	p.matches = nil
}

// filter recomputes matches; an empty query lists every note in tree order.
func (p *jumpPicker) filter() {
	p.index = 0
	q := strings.TrimSpace(p.input.Value())
	if q == "" {
		p.matches = make(fuzzy.Matches, len(p.candidates))
		for i, c := range p.candidates {
			p.matches[i] = fuzzy.Match{Str: c.path, Index: i}
		}
		return
	}
	p.matches = fuzzy.FindFrom(q, p.candidates)
}

func (p *jumpPicker) move(delta int) {
	if len(p.matches) == 0 {
		return
	}
	p.index = (p.index + delta + len(p.matches)) % len(p.matches)
}

// selected returns the chosen note id, or 0 when nothing matches.
func (p *jumpPicker) selected() int64 {
	if p.index < 0 || p.index >= len(p.matches) {
		return 0
	}
	return p.candidates[p.matches[p.index].Index].id
}

func (p *jumpPicker) view(width int) string {
	bodyW := modalBodyWidth(width)
	hit := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	sel := lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg)

	lines := []string{p.input.View(), ""}
	if len(p.matches) == 0 {
		lines = append(lines, styleMuted().Render("no matching notes"))
	}
	start := 0
	if p.index >= jumpMaxRows {
		start = p.index - jumpMaxRows + 1
	}
	for i := start; i < len(p.matches) && i < start+jumpMaxRows; i++ {
		line := highlightMatch(p.matches[i], hit)
		if i == p.index {
			line = sel.Width(bodyW).Render(p.matches[i].Str)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", styleMuted().Render("enter: jump   ↑/↓: choose   esc: cancel"))
	return renderModalBox(width, "Jump to note", strings.Join(lines, "\n"))
}

func highlightMatch(m fuzzy.Match, hit lipgloss.Style) string {
	if len(m.MatchedIndexes) == 0 {
		return m.Str
	}
	marked := make(map[int]bool, len(m.MatchedIndexes))
	for _, i := range m.MatchedIndexes {
		marked[i] = true
	}
	var b strings.Builder
	for i, r := range m.Str {
		if marked[i] {
			b.WriteString(hit.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func notePath(n *outline.Node) string {
	var parts []string
	for p := n; p.HasNote(); p = p.Parent() {
		parts = append(parts, p.Title)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " / ")
}
