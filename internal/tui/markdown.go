package tui

import (
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
	// Keyed by style and wrap width. WithAutoStyle can block on terminal queries, so a
	// fixed style is resolved once per key.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders md for a pane of the given width. On renderer failure the raw
// markdown is returned.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		cfg := markdownStyleConfig(style)
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(cfg),
			glamour.WithWordWrap(width),
			glamour.WithEmoji(),
		)
		if err != nil {
			mdRendererMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdRendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle() string {
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func markdownStyleConfig(style string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if style == "light" {
		cfg = styles.LightStyleConfig
	}

	pick := func(c lipgloss.AdaptiveColor) *string {
		s := c.Dark
		if style == "light" {
			s = c.Light
		}
		return &s
	}
	yes := true

	heading := pick(colorSurfaceFg)
	cfg.Heading.Color = heading
	cfg.H1.Color = heading
	cfg.H1.BackgroundColor = nil
	cfg.H2.Color = heading
	cfg.Text.Color = pick(colorSurfaceFg)
	cfg.Emph.Color = pick(colorMuted)
	cfg.Link.Color = pick(colorAccent)
	cfg.Link.Underline = &yes
	cfg.Task.Ticked = "[x] "
	cfg.Task.Unticked = "[ ] "
	return cfg
}
