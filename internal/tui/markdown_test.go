package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/glamour/styles"
	"github.com/stretchr/testify/assert"
)

func TestRewriteWikiLinks(t *testing.T) {
	assert.Equal(t, "see [12](12) and [7](7)", rewriteWikiLinks("see [[12]] and [[7]]"))
	assert.Equal(t, "[[draft]] stays", rewriteWikiLinks("[[draft]] stays"))
}

func TestRenderMarkdown_EmptyIsNoContent(t *testing.T) {
	assert.Equal(t, noContent, renderMarkdown("", 40, "notty"))
	assert.Equal(t, noContent, renderMarkdown(" \n\t", 40, "notty"))
}

func TestRenderMarkdown_RendersLinksAndText(t *testing.T) {
	out := renderMarkdown("# Title\n\nbody with [[42]]", 60, "notty")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body with")
	assert.Contains(t, out, "42")
	assert.NotContains(t, out, "[[42]]")
}

func TestResolveMarkdownStyle(t *testing.T) {
	assert.Equal(t, "dark", resolveMarkdownStyle("dark"))
	assert.Equal(t, "light", resolveMarkdownStyle(" Light "))
	assert.Equal(t, "notty", resolveMarkdownStyle("NOTTY"))

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "notty", resolveMarkdownStyle("auto"))
}

func TestMarkdownStyleConfig_DropsDocumentMargin(t *testing.T) {
	for _, style := range []string{"dark", "light", "notty"} {
		cfg := markdownStyleConfig(style)
		if assert.NotNil(t, cfg.Document.Margin, style) {
			assert.Zero(t, *cfg.Document.Margin, style)
		}
	}
	// The shared style configs must not be modified.
	if m := styles.DarkStyleConfig.Document.Margin; m != nil {
		assert.NotZero(t, *m)
	}
}

func TestNoticeStylesRender(t *testing.T) {
	for _, l := range []notifyLevel{notifyInfo, notifyWarning, notifyError} {
		assert.True(t, strings.Contains(noticeStyle(l).Render("x"), "x"), l.String())
	}
}
