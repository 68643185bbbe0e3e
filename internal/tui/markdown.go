package tui

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const noContent = "No content"

var (
	mdRendererMu sync.Mutex
	// Renderers are cached by style and wrap width. Auto style detection can
	// block on terminal queries, so the style is always resolved up front.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

var wikiLink = regexp.MustCompile(`\[\[(\d+)\]\]`)

// rewriteWikiLinks turns [[123]] into a markdown link to note 123.
func rewriteWikiLinks(md string) string {
	return wikiLink.ReplaceAllString(md, "[$1]($1)")
}

// resolveMarkdownStyle maps the configured preference onto a glamour style.
func resolveMarkdownStyle(pref string) string {
	switch strings.ToLower(strings.TrimSpace(pref)) {
	case "dark":
		return "dark"
	case "light":
		return "light"
	case "notty":
		return "notty"
	}
	if termenv.EnvNoColor() {
		return "notty"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func markdownStyleConfig(style string) ansi.StyleConfig {
	var cfg ansi.StyleConfig
	switch style {
	case "light":
		cfg = styles.LightStyleConfig
	case "notty":
		cfg = styles.NoTTYStyleConfig
	default:
		cfg = styles.DarkStyleConfig
	}
	// The viewer pane has its own padding.
	zero := uint(0)
	cfg.Document.Margin = &zero
	if style != "notty" {
		link := mdColor(colorAccent, style)
		cfg.Link.Color = link
		cfg.LinkText.Color = link
		cfg.BlockQuote.Faint = mdBoolPtr(false)
	}
	return cfg
}

// renderMarkdown renders note content for the viewer. Rendering failures fall
// back to the raw text.
func renderMarkdown(md string, width int, style string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return noContent
	}
	if width < 10 {
		width = 10
	}
	md = rewriteWikiLinks(md)

	key := style + ":" + strconv.Itoa(width)
	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(style)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func mdColor(c lipgloss.AdaptiveColor, style string) *string {
	if style == "light" {
		return mdStrPtr(c.Light)
	}
	return mdStrPtr(c.Dark)
}

func mdStrPtr(s string) *string { return &s }
func mdBoolPtr(b bool) *bool    { return &b }
