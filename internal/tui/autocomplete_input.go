package tui

import (
	"strconv"
	"strings"

	"groceries-cli/internal/autocomplete"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxSuggestionsShown = 5

// acInput is a text input with a suggestion list driven by autocomplete.Field.
type acInput struct {
	input textinput.Model
	field *autocomplete.Field
}

func newTextInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newACInput(placeholder string, suggestions []string) *acInput {
	return &acInput{
		input: newTextInput(placeholder),
		field: autocomplete.New(suggestions),
	}
}

func (a *acInput) Focus()        { a.input.Focus() }
func (a *acInput) Blur()         { a.input.Blur(); a.field.Dismiss() }
func (a *acInput) Focused() bool { return a.input.Focused() }
func (a *acInput) Value() string { return a.input.Value() }

// SetValue sets the text without opening the suggestion list.
func (a *acInput) SetValue(s string) {
	a.input.SetValue(s)
	a.input.CursorEnd()
	a.field.SetQuery(s)
	a.field.Dismiss()
}

func (a *acInput) SetSuggestions(xs []string) { a.field.SetSuggestions(xs) }
func (a *acInput) Dismiss()                   { a.field.Dismiss() }

// Suggesting reports whether a non-empty suggestion list is showing.
func (a *acInput) Suggesting() bool {
	return a.field.State() == autocomplete.Suggesting && len(a.field.Suggestions()) > 0
}

// HandleKey applies k and reports whether the input consumed it. enter/tab only commit
// while suggestions are showing, so callers can use them for focus and submit otherwise.
func (a *acInput) HandleKey(k tea.KeyMsg) bool {
	switch k.String() {
	case "down", "ctrl+n":
		if a.Suggesting() {
			a.field.Down()
			return true
		}
		return false
	case "up", "ctrl+p":
		if a.Suggesting() {
			a.field.Up()
			return true
		}
		return false
	case "enter", "tab":
		if !a.Suggesting() {
			return false
		}
		a.input.SetValue(a.field.Commit())
		a.input.CursorEnd()
		return true
	case "esc":
		if a.Suggesting() {
			a.field.Dismiss()
			return true
		}
		return false
	}

	before := a.input.Value()
	a.input, _ = a.input.Update(k)
	if v := a.input.Value(); v != before {
		a.field.SetQuery(v)
	}
	return true
}

// Commit takes the highlighted suggestion or the typed text.
func (a *acInput) Commit() string {
	v := a.field.Commit()
	a.input.SetValue(v)
	a.input.CursorEnd()
	return v
}

func (a *acInput) View(width int) string {
	if sv := a.SuggestionsView(); sv != "" {
		return a.InputView(width) + "\n" + sv
	}
	return a.InputView(width)
}

func (a *acInput) InputView(width int) string {
	return renderInputLine(width, a.input.View())
}

// SuggestionsView lists up to maxSuggestionsShown suggestions around the cursor. It is
// empty unless the input is focused and suggesting.
func (a *acInput) SuggestionsView() string {
	if !a.Focused() || !a.Suggesting() {
		return ""
	}

	sel := lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	xs := a.field.Suggestions()
	start := 0
	if c := a.field.Cursor(); c >= maxSuggestionsShown {
		start = c - maxSuggestionsShown + 1
	}
	var lines []string
	for i := start; i < len(xs) && i < start+maxSuggestionsShown; i++ {
		row := "  " + xs[i]
		if i == a.field.Cursor() {
			row = sel.Render("> " + xs[i])
		}
		lines = append(lines, row)
	}
	if more := len(xs) - (start + maxSuggestionsShown); more > 0 {
		lines = append(lines, styleMuted().Render("  … "+strconv.Itoa(more)+" more"))
	}
	return strings.Join(lines, "\n")
}
