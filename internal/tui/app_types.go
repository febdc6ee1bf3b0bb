package tui

import (
	"errors"

	"groceries-cli/internal/api"
	"groceries-cli/internal/attach"
	"groceries-cli/internal/model"
	"groceries-cli/internal/resolve"
)

var errBusy = errors.New("another change is still being saved")

type view int

const (
	viewMenus view = iota
	viewMenu
	viewShopping
)

func (v view) String() string {
	switch v {
	case viewMenu:
		return "menu"
	case viewShopping:
		return "shopping"
	default:
		return "menus"
	}
}

// modalKind is the single modal that can be open on top of a view.
type modalKind int

const (
	modalNone modalKind = iota
	modalNewMeal
	modalExistingMeal
	modalEditMeal
	modalConfirmDelete
	modalNewMenu
)

type pane int

const (
	paneAttached pane = iota
	paneUnattached
)

type menusLoadedMsg struct {
	menus []model.Menu
	err   error
}

type menuLoadedMsg struct {
	menuID int64
	state  api.MenuState
	err    error
}

type formOptionsMsg struct {
	opts api.FormOptions
	err  error
}

// moveDoneMsg settles an optimistic attach/detach. menu and gen identify the pane state
// snap was taken from.
type moveDoneMsg struct {
	menu   model.Menu
	gen    int
	meal   model.Meal
	detach bool
	snap   attach.Snapshot[model.Meal]
	err    error
}

type mealCreatedMsg struct {
	draft *resolve.MealDraft
	res   resolve.Result
	err   error
}

type menusCreatedMsg struct {
	created []model.Menu
	err     error
}

type deleteTarget struct {
	kind string // "menu" or "meal"
	id   int64
	name string
}

type deletedMsg struct {
	target deleteTarget
	err    error
}

type mealIngredientsMsg struct {
	meal model.Meal
	rows []model.MealIngredient
	err  error
}

type linkSavedMsg struct {
	link model.MealIngredientLink
	err  error
}

type ingredientsAddedMsg struct {
	mealID int64
	res    resolve.Result
	err    error
}

type shoppingListMsg struct {
	menu model.Menu
	md   string
	err  error
}
