package tui

import (
	"strconv"

	"groceries-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
)

type menuItem struct{ menu model.Menu }

func (i menuItem) FilterValue() string { return i.menu.Name }
func (i menuItem) Title() string       { return i.menu.Name }
func (i menuItem) Description() string { return "menu #" + strconv.FormatInt(i.menu.ID, 10) }

type mealItem struct{ meal model.Meal }

func (i mealItem) FilterValue() string { return i.meal.Name }
func (i mealItem) Title() string       { return i.meal.Name }
func (i mealItem) Description() string { return "meal #" + strconv.FormatInt(i.meal.ID, 10) }

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	// Filtering is done by the view itself; "q" and "esc" mean back, not quit.
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.CursorUp.SetKeys(append(l.KeyMap.CursorUp.Keys(), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(l.KeyMap.CursorDown.Keys(), "ctrl+n")...)
	l.KeyMap.GoToStart.SetKeys(append(l.KeyMap.GoToStart.Keys(), "<")...)
	l.KeyMap.GoToEnd.SetKeys(append(l.KeyMap.GoToEnd.Keys(), ">")...)
	return l
}

func menuItems(ms []model.Menu) []list.Item {
	out := make([]list.Item, 0, len(ms))
	for _, m := range ms {
		out = append(out, menuItem{menu: m})
	}
	return out
}

func mealItems(ms []model.Meal) []list.Item {
	out := make([]list.Item, 0, len(ms))
	for _, m := range ms {
		out = append(out, mealItem{meal: m})
	}
	return out
}

// setItemsKeepSelection replaces l's items and keeps the cursor on id when it is still
// present, otherwise on the same index clamped to the new length.
func setItemsKeepSelection(l *list.Model, items []list.Item, id int64) {
	idx := l.Index()
	l.SetItems(items)
	for i, it := range items {
		if itemID(it) == id {
			l.Select(i)
			return
		}
	}
	if idx >= len(items) {
		idx = len(items) - 1
	}
	l.Select(max(idx, 0))
}

func itemID(it list.Item) int64 {
	switch it := it.(type) {
	case menuItem:
		return it.menu.ID
	case mealItem:
		return it.meal.ID
	}
	return 0
}

func selectedMeal(l list.Model) (model.Meal, bool) {
	it, ok := l.SelectedItem().(mealItem)
	return it.meal, ok
}

func selectedMenu(l list.Model) (model.Menu, bool) {
	it, ok := l.SelectedItem().(menuItem)
	return it.menu, ok
}
