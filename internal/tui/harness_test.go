package tui

import (
	"testing"

	"groceries-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// harness drives an appModel the way tea.Program would, but synchronously: every
// command runs to completion and its message is fed back before the next key.
type harness struct {
	t    *testing.T
	m    appModel
	quit bool
}

func start(t *testing.T, m appModel) *harness {
	t.Helper()
	h := &harness{t: t, m: m}
	h.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.run(m.Init())
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	mm, cmd := h.m.Update(msg)
	am, ok := mm.(appModel)
	if !ok {
		h.t.Fatalf("Update returned %T, want appModel", mm)
	}
	h.m = am
	return cmd
}

// run executes cmd and everything it leads to. Spinner ticks are dropped so loading
// states never loop.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			h.t.Fatalf("command chain did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, spinner.TickMsg:
		case tea.QuitMsg:
			h.quit = true
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, h.update(msg))
		}
	}
}

// send delivers one key and returns its command without running it.
func (h *harness) send(k string) tea.Cmd {
	h.t.Helper()
	return h.update(keyMsg(k))
}

func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		h.run(h.send(k))
	}
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.run(h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}))
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+a":
		return tea.KeyMsg{Type: tea.KeyCtrlA}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func listNames(l list.Model) []string {
	var out []string
	for _, it := range l.Items() {
		switch it := it.(type) {
		case mealItem:
			out = append(out, it.meal.Name)
		case menuItem:
			out = append(out, it.menu.Name)
		}
	}
	return out
}

func mealNames(ms []model.Meal) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return out
}
