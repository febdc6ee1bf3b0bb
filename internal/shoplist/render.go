package shoplist

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown renders the list as a GFM task list grouped by category.
func Markdown(l List) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# :shopping_cart: %s\n", title(l))
	if l.Len() == 0 {
		b.WriteString("\nNothing to buy.\n")
		return b.String()
	}
	for _, g := range l.Groups {
		fmt.Fprintf(&b, "\n## %s\n\n", g.Category)
		for _, it := range g.Items {
			fmt.Fprintf(&b, "- [ ] %s", escapeMarkdown(it.Summary()))
			if len(it.Meals) > 0 {
				fmt.Fprintf(&b, " _(%s)_", escapeMarkdown(strings.Join(it.Meals, ", ")))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func title(l List) string {
	name := strings.TrimSpace(l.Menu.Name)
	if name == "" {
		return "Shopping list"
	}
	return "Shopping list: " + escapeMarkdown(name)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`", "<", "&lt;",
)

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

// Text renders one wrapped line per item, indented under its category.
func Text(l List, width int) string {
	var b strings.Builder
	for i, g := range l.Groups {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(g.Category + ":\n")
		for _, it := range g.Items {
			line := it.Summary()
			if width > 4 {
				line = wordwrap.String(line, width-4)
			}
			b.WriteString(indent.String(line, 2))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Terminal renders markdown for a terminal with a fixed glamour style ("dark",
// "light", "notty", ...).
func Terminal(md, style string, width int) (string, error) {
	if width < 20 {
		width = 20
	}
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

var markdownHTML = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{.Body}}</body></html>
`))

// HTML renders a standalone page. Raw HTML in names is never passed through.
func HTML(l List) ([]byte, error) {
	var body bytes.Buffer
	if err := markdownHTML.Convert([]byte(Markdown(l)), &body); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	err := pageTemplate.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: "Shopping list " + l.Menu.Name,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
