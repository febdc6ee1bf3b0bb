package tui

import (
	"context"

	"groceries-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// refreshMeals re-derives both panes from the view. keepID stays selected when present.
func (m *appModel) refreshMeals(keepID int64) {
	setItemsKeepSelection(&m.attachedList, mealItems(m.meals.Attached()), keepID)
	setItemsKeepSelection(&m.unattachedList, mealItems(m.meals.Filter(m.filter.Value())), keepID)
}

func (m appModel) viewMenu() string {
	if m.loadingMenu {
		return styleMuted().Render("Loading " + m.menu.Name + "…")
	}
	w := max(m.width, 40)
	h := m.bodyHeight()
	leftW := w / 2
	rightW := w - leftW

	left := m.paneView("On this menu", m.attachedList, m.pane == paneAttached, leftW, h)

	title := "Available meals"
	if m.filtering || m.filter.Value() != "" {
		title += "  /" + m.filter.View()
	}
	right := m.paneView(title, m.unattachedList, m.pane == paneUnattached, rightW, h)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m appModel) paneView(title string, l list.Model, active bool, w, h int) string {
	head := styleMuted().Render(title)
	if active {
		head = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(title)
	}
	body := l.View()
	if len(l.Items()) == 0 {
		body = styleMuted().Render("(none)")
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPaneBorder).
		Width(w - 2)
	if active {
		box = box.BorderForeground(colorAccent)
	}
	return box.Render(normalizePane(head+"\n\n"+body, w-2, h-3))
}

func (m appModel) updateMenuView(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.updateFilter(k)
	}

	switch k.String() {
	case "esc", "backspace", "q":
		m.view = viewMenus
		m.filter.SetValue("")
		return m, m.loadMenus()
	case "r":
		return m, m.loadMenu(m.menu.ID)
	case "tab", "left", "right", "h", "l":
		if m.pane == paneAttached {
			m.pane = paneUnattached
		} else {
			m.pane = paneAttached
		}
		return m, nil
	case "/":
		m.filtering = true
		m.pane = paneUnattached
		m.filter.Focus()
		return m, nil
	case "enter", "a":
		if m.pane != paneUnattached {
			return m, nil
		}
		meal, ok := selectedMeal(m.unattachedList)
		if !ok {
			return m, nil
		}
		return m.attachMeal(meal)
	case "x":
		if m.pane != paneAttached {
			return m, nil
		}
		meal, ok := selectedMeal(m.attachedList)
		if !ok {
			return m, nil
		}
		return m.detachMeal(meal)
	case "n":
		return m.openMealForm()
	case "m":
		return m.openExistingMeal()
	case "e":
		meal, ok := m.selectedMeal()
		if !ok {
			return m, nil
		}
		return m.openEditMeal(meal)
	case "d":
		meal, ok := m.selectedMeal()
		if !ok {
			return m, nil
		}
		m.confirm = deleteTarget{kind: "meal", id: meal.ID, name: meal.Name}
		m.confirmFoc = confirmFocusCancel
		m.modal = modalConfirmDelete
		return m, nil
	case "s":
		return m.openShopping()
	}

	var cmd tea.Cmd
	if m.pane == paneAttached {
		m.attachedList, cmd = m.attachedList.Update(k)
	} else {
		m.unattachedList, cmd = m.unattachedList.Update(k)
	}
	return m, cmd
}

func (m appModel) selectedMeal() (model.Meal, bool) {
	if m.pane == paneAttached {
		return selectedMeal(m.attachedList)
	}
	return selectedMeal(m.unattachedList)
}

// updateFilter edits the query; the unattached pane is always re-filtered from the full
// unattached set.
func (m appModel) updateFilter(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
	case "enter":
		m.filtering = false
		m.filter.Blur()
	default:
		m.filter, _ = m.filter.Update(k)
	}
	m.refreshMeals(0)
	return m, nil
}

// attachMeal moves meal to the attached pane right away and issues the request. A
// failure restores the snapshot taken before the move.
func (m appModel) attachMeal(meal model.Meal) (tea.Model, tea.Cmd) {
	if m.moving {
		return m.fail("attach "+meal.Name, errBusy), nil
	}
	snap, err := m.meals.Attach(meal.ID)
	if err != nil {
		return m.fail("attach "+meal.Name, err), nil
	}
	m.moving = true
	m.refreshMeals(0)
	repo, menu, gen := m.repo, m.menu, m.menuGen
	return m, func() tea.Msg {
		err := repo.AttachMealToMenu(context.Background(), meal.ID, menu.ID)
		return moveDoneMsg{menu: menu, gen: gen, meal: meal, snap: snap, err: err}
	}
}

func (m appModel) detachMeal(meal model.Meal) (tea.Model, tea.Cmd) {
	if m.moving {
		return m.fail("detach "+meal.Name, errBusy), nil
	}
	snap, err := m.meals.Detach(meal.ID)
	if err != nil {
		return m.fail("detach "+meal.Name, err), nil
	}
	m.moving = true
	m.refreshMeals(0)
	repo, menu, gen := m.repo, m.menu, m.menuGen
	return m, func() tea.Msg {
		err := repo.DetachMealFromMenus(context.Background(), meal.ID)
		return moveDoneMsg{menu: menu, gen: gen, meal: meal, detach: true, snap: snap, err: err}
	}
}

// settleMove applies the server's answer to an optimistic move. The snapshot is only
// restored onto the pane state it was taken from; once the panes were reloaded or
// another menu was opened, the open menu is re-fetched instead when it is the one
// the move touched.
func (m appModel) settleMove(msg moveDoneMsg) (appModel, tea.Cmd) {
	m.moving = false
	verb := "attach "
	if msg.detach {
		verb = "detach "
	}

	var cmd tea.Cmd
	if msg.gen != m.menuGen {
		if msg.menu.ID == m.menu.ID && m.view == viewMenu {
			m.loadingMenu = true
			cmd = m.loadMenu(m.menu.ID)
		}
	} else if msg.err != nil {
		m.meals.Restore(msg.snap)
		m.refreshMeals(msg.meal.ID)
	}

	if msg.err != nil {
		return m.fail(verb+msg.meal.Name+" on "+msg.menu.Name, msg.err), cmd
	}
	if msg.detach {
		return m.ok("Removed " + msg.meal.Name + " from " + msg.menu.Name), cmd
	}
	return m.ok("Added " + msg.meal.Name + " to " + msg.menu.Name), cmd
}
