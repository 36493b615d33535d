package tui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdRendererMu sync.Mutex
	// Keyed by style and wrap width. WithAutoStyle is avoided since it can block on
	// terminal background queries.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// RenderMarkdown renders md for a terminal of the given width.
func RenderMarkdown(md string, width int) (string, error) {
	md = strings.TrimSpace(md)
	if md == "" {
		return "", nil
	}
	if width < 10 {
		width = 10
	}

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	defer mdRendererMu.Unlock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(style)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		mdRenderers[key] = rr
		r = rr
	}

	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// renderMarkdown falls back to the raw text when rendering fails.
func renderMarkdown(md string, width int) string {
	out, err := RenderMarkdown(md, width)
	if err != nil {
		return md
	}
	return out
}

func markdownStyleConfig(styleName string) ansi.StyleConfig {
	if styleName == "light" {
		cfg := styles.LightStyleConfig
		applyMarkdownPalette(&cfg, "235")
		return cfg
	}
	cfg := styles.DarkStyleConfig
	applyMarkdownPalette(&cfg, "252")
	return cfg
}

// applyMarkdownPalette keeps headings and body text on the surface foreground.
func applyMarkdownPalette(cfg *ansi.StyleConfig, fg string) {
	c := func() *string { s := fg; return &s }
	cfg.Heading.Color = c()
	cfg.H1.Color = c()
	cfg.H2.Color = c()
	cfg.H3.Color = c()
	cfg.Text.Color = c()
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
}

func markdownStyle() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEBATEPAD_TUI_MD_STYLE"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEBATEPAD_TUI_THEME"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
