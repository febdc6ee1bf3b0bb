// Package autocomplete is a text field with a prefix-filtered suggestion list.
//
// The field is a small state machine: typing enters Suggesting, Down/Up move a clamped
// cursor, and Commit publishes a value through OnCommit and returns to Idle.
//
// Suggestions are the source filtered by attach.FilterByPrefix, except that an empty
// query shows no list at all. Clearing a field and moving on therefore commits the empty
// text rather than the first catalog entry.
package autocomplete

import (
	"slices"

	"groceries-cli/internal/attach"
)

type State int

const (
	Idle State = iota
	Suggesting
	// Committed is only observable from inside OnCommit.
	Committed
)

func (s State) String() string {
	switch s {
	case Suggesting:
		return "suggesting"
	case Committed:
		return "committed"
	default:
		return "idle"
	}
}

type suggestion struct {
	idx  int64
	text string
}

func (s suggestion) ItemID() int64       { return s.idx }
func (s suggestion) DisplayName() string { return s.text }

type Field struct {
	// OnCommit is called with the committed value.
	OnCommit func(value string)

	all      []suggestion
	filtered []suggestion
	value    string
	cursor   int
	state    State
}

func New(suggestions []string) *Field {
	f := &Field{}
	f.SetSuggestions(suggestions)
	return f
}

// SetSuggestions replaces the suggestion source. A visible list is recomputed against
// the new source.
func (f *Field) SetSuggestions(xs []string) {
	f.all = make([]suggestion, 0, len(xs))
	for i, s := range xs {
		f.all = append(f.all, suggestion{idx: int64(i), text: s})
	}
	if f.state == Suggesting {
		f.refilter()
	}
}

func (f *Field) Value() string { return f.value }
func (f *Field) State() State  { return f.state }
func (f *Field) Cursor() int   { return f.cursor }

// Suggestions returns the currently visible list.
func (f *Field) Suggestions() []string {
	out := make([]string, 0, len(f.filtered))
	for _, s := range f.filtered {
		out = append(out, s.text)
	}
	return out
}

// Selected returns the suggestion under the cursor.
func (f *Field) Selected() (string, bool) {
	if len(f.filtered) == 0 {
		return "", false
	}
	return f.filtered[f.cursor].text, true
}

// SetQuery replaces the typed value and recomputes suggestions from the full source.
// An empty q leaves the field Suggesting with an empty list.
func (f *Field) SetQuery(q string) {
	f.value = q
	f.state = Suggesting
	f.refilter()
}

func (f *Field) Type(r rune) { f.SetQuery(f.value + string(r)) }

func (f *Field) Backspace() {
	rs := []rune(f.value)
	if len(rs) == 0 {
		f.SetQuery("")
		return
	}
	f.SetQuery(string(rs[:len(rs)-1]))
}

func (f *Field) refilter() {
	if f.value == "" {
		f.filtered = nil
	} else {
		f.filtered = attach.FilterByPrefix(slices.Clone(f.all), f.value)
	}
	f.cursor = 0
}

// Down moves the cursor one suggestion further, stopping at the last one.
func (f *Field) Down() {
	if f.state != Suggesting || len(f.filtered) == 0 {
		return
	}
	if f.cursor < len(f.filtered)-1 {
		f.cursor++
	}
}

// Up moves the cursor one suggestion back, stopping at the first one.
func (f *Field) Up() {
	if f.state != Suggesting || len(f.filtered) == 0 {
		return
	}
	if f.cursor > 0 {
		f.cursor--
	}
}

// Commit takes the selected suggestion, or the typed text when nothing is suggested.
func (f *Field) Commit() string {
	if s, ok := f.Selected(); ok && f.state == Suggesting {
		return f.commit(s)
	}
	return f.commit(f.value)
}

// Click commits text directly, as when a suggestion is picked with the mouse.
func (f *Field) Click(text string) string { return f.commit(text) }

func (f *Field) commit(v string) string {
	f.value = v
	f.filtered = nil
	f.cursor = 0
	f.state = Committed
	if f.OnCommit != nil {
		f.OnCommit(v)
	}
	f.state = Idle
	return v
}

// Dismiss hides the suggestions and keeps the typed value.
func (f *Field) Dismiss() {
	f.filtered = nil
	f.cursor = 0
	f.state = Idle
}

// Reset clears the value as well.
func (f *Field) Reset() {
	f.Dismiss()
	f.value = ""
}
