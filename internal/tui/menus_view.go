package tui

import (
	"context"
	"fmt"
	"strings"

	"groceries-cli/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) viewMenus() string {
	if len(m.menus.Items()) == 0 {
		return styleMuted().Render("No menus yet. Press n to create one.")
	}
	return m.menus.View()
}

func (m appModel) updateMenusView(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q":
		return m, tea.Quit
	case "r":
		return m, m.loadMenus()
	case "n":
		m.newMenu = newMenuForm()
		m.modal = modalNewMenu
		return m, nil
	case "enter":
		menu, ok := selectedMenu(m.menus)
		if !ok {
			return m, nil
		}
		return m.openMenu(menu)
	case "d":
		menu, ok := selectedMenu(m.menus)
		if !ok {
			return m, nil
		}
		m.confirm = deleteTarget{kind: "menu", id: menu.ID, name: menu.Name}
		m.confirmFoc = confirmFocusCancel
		m.modal = modalConfirmDelete
		return m, nil
	case "s":
		menu, ok := selectedMenu(m.menus)
		if !ok {
			return m, nil
		}
		m.menu = menu
		return m.openShopping()
	}

	var cmd tea.Cmd
	m.menus, cmd = m.menus.Update(k)
	return m, cmd
}

// openMenu switches to the menu view and fetches its data fresh.
func (m appModel) openMenu(menu model.Menu) (tea.Model, tea.Cmd) {
	m.view = viewMenu
	m.menu = menu
	m.pane = paneUnattached
	m.filtering = false
	m.filter.SetValue("")
	m.loadingMenu = true
	m.meals.Reset(nil, nil)
	m.menuGen++
	m.refreshMeals(0)
	m.status = ""
	return m, m.loadMenu(menu.ID)
}

// menuForm is the "new menus" modal: one text row per menu.
type menuForm struct {
	rows   []textinput.Model
	focus  int
	saving bool
	err    string
}

func newMenuForm() *menuForm {
	f := &menuForm{}
	f.addRow()
	return f
}

func (f *menuForm) addRow() {
	for i := range f.rows {
		f.rows[i].Blur()
	}
	ti := newTextInput("menu name")
	ti.Focus()
	f.rows = append(f.rows, ti)
	f.focus = len(f.rows) - 1
}

func (f *menuForm) move(delta int) {
	f.rows[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.rows)) % len(f.rows)
	f.rows[f.focus].Focus()
}

// names returns the trimmed non-empty rows.
func (f *menuForm) names() []string {
	var out []string
	for _, r := range f.rows {
		if v := strings.TrimSpace(r.Value()); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (m appModel) updateNewMenu(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.newMenu
	if f.saving {
		return m, nil
	}
	switch k.String() {
	case "esc":
		m.modal = modalNone
		m.newMenu = nil
		return m, nil
	case "enter":
		// enter on a filled last row opens another row.
		if f.focus == len(f.rows)-1 && strings.TrimSpace(f.rows[f.focus].Value()) != "" {
			f.addRow()
			return m, nil
		}
		if f.focus < len(f.rows)-1 {
			f.move(1)
			return m, nil
		}
		return m.submitNewMenus()
	case "ctrl+s":
		return m.submitNewMenus()
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	}
	f.rows[f.focus], _ = f.rows[f.focus].Update(k)
	return m, nil
}

func (m appModel) submitNewMenus() (tea.Model, tea.Cmd) {
	names := m.newMenu.names()
	if len(names) == 0 {
		m.newMenu.err = "enter at least one menu name"
		return m, nil
	}
	m.newMenu.saving = true
	m.newMenu.err = ""
	repo := m.repo
	return m, func() tea.Msg {
		var created []model.Menu
		for _, n := range names {
			menu, err := repo.CreateMenu(context.Background(), n)
			if err != nil {
				return menusCreatedMsg{created: created, err: err}
			}
			created = append(created, menu)
		}
		return menusCreatedMsg{created: created}
	}
}

func (m appModel) settleNewMenus(msg menusCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.newMenu != nil {
			m.newMenu.saving = false
			m.newMenu.err = msg.err.Error()
			// Drop rows that were saved so a retry does not create them twice.
			var keep []textinput.Model
			saved := map[string]int{}
			for _, c := range msg.created {
				saved[c.Name]++
			}
			for _, r := range m.newMenu.rows {
				if v := strings.TrimSpace(r.Value()); saved[v] > 0 {
					saved[v]--
					continue
				}
				keep = append(keep, r)
			}
			m.newMenu.rows = keep
			if len(keep) == 0 {
				m.newMenu.addRow()
			} else {
				m.newMenu.focus = 0
				m.newMenu.rows[0].Focus()
			}
		}
		return m.fail("create menus", msg.err), m.loadMenus()
	}
	m.modal = modalNone
	m.newMenu = nil
	m = m.ok(fmt.Sprintf("Created %d menu(s)", len(msg.created)))
	return m, m.loadMenus()
}

func (m appModel) viewNewMenu() string {
	f := m.newMenu
	bodyW := modalBodyWidth(m.width)
	var b strings.Builder
	for _, r := range f.rows {
		b.WriteString(renderInputLine(bodyW, r.View()))
		b.WriteString("\n")
	}
	if f.saving {
		b.WriteString("\n" + styleMuted().Render("Saving…"))
	}
	if f.err != "" {
		b.WriteString("\n" + styleError().Render(f.err))
	}
	b.WriteString("\n" + styleMuted().Width(bodyW).Render("enter: next/new row   ctrl+s: save   esc: cancel"))
	return renderModalBox(m.width, "New menus", b.String())
}

func (m appModel) updateConfirmDelete(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc", "n", "ctrl+g":
		m.modal = modalNone
		return m, nil
	case "tab", "shift+tab", "left", "right":
		if m.confirmFoc == confirmFocusConfirm {
			m.confirmFoc = confirmFocusCancel
		} else {
			m.confirmFoc = confirmFocusConfirm
		}
		return m, nil
	case "y":
		m.confirmFoc = confirmFocusConfirm
	case "enter":
	default:
		return m, nil
	}

	m.modal = modalNone
	if m.confirmFoc != confirmFocusConfirm {
		return m, nil
	}
	target, repo := m.confirm, m.repo
	return m, func() tea.Msg {
		var err error
		if target.kind == "menu" {
			err = repo.DeleteMenu(context.Background(), target.id)
		} else {
			err = repo.DeleteMeal(context.Background(), target.id)
		}
		return deletedMsg{target: target, err: err}
	}
}

func (m appModel) settleDelete(msg deletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.fail("delete "+msg.target.kind+" "+msg.target.name, msg.err), nil
	}
	m = m.ok("Deleted " + msg.target.kind + " " + msg.target.name)
	if msg.target.kind == "menu" {
		return m, m.loadMenus()
	}
	return m, m.loadMenu(m.menu.ID)
}
