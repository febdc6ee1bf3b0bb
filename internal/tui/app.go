package tui

import (
	"context"
	"log"
	"strings"

	"groceries-cli/internal/api"
	"groceries-cli/internal/attach"
	"groceries-cli/internal/model"
	"groceries-cli/internal/resolve"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type appModel struct {
	repo     api.Repository
	resolver *resolve.Resolver
	order    attach.Order

	width  int
	height int

	view  view
	modal modalKind

	menu  model.Menu // open menu in viewMenu and viewShopping
	menus list.Model

	meals          *attach.View[model.Meal]
	attachedList   list.Model
	unattachedList list.Model
	pane           pane
	filter         textinput.Model
	filtering      bool
	loadingMenu    bool
	// moving is set while an optimistic attach/detach waits for the server. Further moves
	// are refused until it settles so a rollback never clobbers a later change.
	moving bool
	// menuGen changes whenever the panes are replaced wholesale (menu opened or reloaded).
	menuGen int

	form       *mealForm
	existing   *acInput
	edit       *editMealForm
	newMenu    *menuForm
	confirm    deleteTarget
	confirmFoc confirmModalFocus

	shopSpinner  spinner.Model
	shopViewport viewport.Model
	shopLoading  bool
	shopReturn   view

	status    string
	statusErr bool
}

func newAppModel(repo api.Repository, opts Options) appModel {
	m := appModel{
		repo:     repo,
		resolver: resolve.New(repo, nil),
		order:    opts.Order,
		view:     viewMenus,
		meals:    attach.NewView[model.Meal](nil, nil),
	}
	m.meals.Order = opts.Order
	m.menus = newList("Menus")
	m.attachedList = newList("On this menu")
	m.unattachedList = newList("Available meals")
	m.filter = newTextInput("filter meals")
	m.shopSpinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.shopViewport = viewport.New(0, 0)
	return m
}

func (m appModel) Init() tea.Cmd { return m.loadMenus() }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case menusLoadedMsg:
		if msg.err != nil {
			return m.fail("load menus", msg.err), nil
		}
		setItemsKeepSelection(&m.menus, menuItems(msg.menus), 0)
		return m, nil

	case menuLoadedMsg:
		if msg.menuID != m.menu.ID {
			return m, nil
		}
		m.loadingMenu = false
		if msg.err != nil {
			return m.fail("load menu", msg.err), nil
		}
		m.menu = msg.state.Menu
		m.meals.Reset(msg.state.AllMeals, msg.state.Attached)
		m.menuGen++
		m.refreshMeals(0)
		return m, nil

	case moveDoneMsg:
		return m.settleMove(msg)

	case formOptionsMsg:
		return m.applyFormOptions(msg), nil

	case mealCreatedMsg:
		return m.settleNewMeal(msg)

	case mealIngredientsMsg, linkSavedMsg, ingredientsAddedMsg:
		return m.settleEditMeal(msg)

	case menusCreatedMsg:
		return m.settleNewMenus(msg)

	case deletedMsg:
		return m.settleDelete(msg)

	case shoppingListMsg, spinner.TickMsg:
		return m.updateShopping(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		switch m.view {
		case viewMenu:
			return m.updateMenuView(msg)
		case viewShopping:
			return m.updateShopping(msg)
		default:
			return m.updateMenusView(msg)
		}
	}
	return m, nil
}

func (m appModel) updateModal(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalNewMeal:
		return m.updateMealForm(k)
	case modalExistingMeal:
		return m.updateExistingMeal(k)
	case modalEditMeal:
		return m.updateEditMeal(k)
	case modalConfirmDelete:
		return m.updateConfirmDelete(k)
	case modalNewMenu:
		return m.updateNewMenu(k)
	case modalNone:
	}
	return m, nil
}

func (m appModel) View() string {
	header := styleTitle().Render("Groceries") + "  " + styleMuted().Render(m.breadcrumb())

	var body string
	switch m.view {
	case viewMenu:
		body = m.viewMenu()
	case viewShopping:
		body = m.viewShopping()
	default:
		body = m.viewMenus()
	}

	if modal := m.viewModal(); modal != "" {
		body = lipgloss.Place(max(m.width, 40), max(m.bodyHeight(), 10), lipgloss.Center, lipgloss.Center, modal)
	}

	return strings.Join([]string{header, body, m.viewStatus(), styleMuted().Render(m.footer())}, "\n")
}

func (m appModel) viewModal() string {
	switch m.modal {
	case modalNewMeal:
		return m.viewMealForm()
	case modalExistingMeal:
		return m.viewExistingMeal()
	case modalEditMeal:
		return m.viewEditMeal()
	case modalConfirmDelete:
		body := "Delete " + m.confirm.kind + " " + m.confirm.name + "? This cannot be undone."
		return renderConfirmModal(m.width, "Delete "+m.confirm.kind, body, "Delete", "Cancel", m.confirmFoc)
	case modalNewMenu:
		return m.viewNewMenu()
	case modalNone:
	}
	return ""
}

func (m appModel) breadcrumb() string {
	switch m.view {
	case viewMenu:
		return "menus > " + emptyAsDash(m.menu.Name)
	case viewShopping:
		return "menus > " + emptyAsDash(m.menu.Name) + " > shopping list"
	default:
		return "menus"
	}
}

func (m appModel) footer() string {
	switch {
	case m.modal != modalNone:
		return "esc: close"
	case m.view == viewMenu && m.filtering:
		return "type to filter   enter: keep   esc: clear"
	case m.view == viewMenu:
		return "tab: pane  enter/a: attach  x: detach  /: filter  n: new meal  m: add existing  e: edit  d: delete  s: shopping  esc: back"
	case m.view == viewShopping:
		return "↑/↓: scroll  esc: back"
	default:
		return "enter: open  n: new menu  d: delete  s: shopping list  r: reload  q: quit"
	}
}

func (m appModel) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return styleError().Render(m.status)
	}
	return styleOK().Render(m.status)
}

func (m appModel) bodyHeight() int { return max(m.height-4, 8) }

func (m *appModel) resize() {
	h := m.bodyHeight()
	w := max(m.width, 40)
	m.menus.SetSize(w, h)
	m.attachedList.SetSize(w/2-2, h-3)
	m.unattachedList.SetSize(w-w/2-2, h-3)
	m.shopViewport.Width = w
	m.shopViewport.Height = h
}

// fail records err in the status line and the debug log.
func (m appModel) fail(action string, err error) appModel {
	log.Printf("%s: %v", action, err)
	m.status = action + ": " + err.Error()
	m.statusErr = true
	return m
}

func (m appModel) ok(s string) appModel {
	m.status = s
	m.statusErr = false
	return m
}

func (m appModel) loadMenus() tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		menus, err := repo.ListMenus(context.Background())
		return menusLoadedMsg{menus: menus, err: err}
	}
}

func (m appModel) loadMenu(menuID int64) tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		st, err := api.HydrateMenu(context.Background(), repo, menuID)
		return menuLoadedMsg{menuID: menuID, state: st, err: err}
	}
}

func (m appModel) loadFormOptions() tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		opts, err := api.HydrateForm(context.Background(), repo)
		return formOptionsMsg{opts: opts, err: err}
	}
}
