package tui

import (
	"context"

	"groceries-cli/internal/shoplist"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// openShopping builds the shopping list of m.menu and shows it as markdown.
func (m appModel) openShopping() (tea.Model, tea.Cmd) {
	if m.view != viewShopping {
		m.shopReturn = m.view
	}
	m.view = viewShopping
	m.shopLoading = true
	m.shopViewport.SetContent("")
	m.shopViewport.GotoTop()

	repo, menu := m.repo, m.menu
	build := func() tea.Msg {
		l, err := shoplist.Build(context.Background(), repo, menu.ID)
		if err != nil {
			return shoppingListMsg{menu: menu, err: err}
		}
		return shoppingListMsg{menu: l.Menu, md: shoplist.Markdown(l)}
	}
	return m, tea.Batch(m.shopSpinner.Tick, build)
}

func (m appModel) updateShopping(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.shopLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.shopSpinner, cmd = m.shopSpinner.Update(msg)
		return m, cmd

	case shoppingListMsg:
		if m.view != viewShopping || msg.menu.ID != m.menu.ID {
			return m, nil
		}
		m.shopLoading = false
		if msg.err != nil {
			m.view = m.shopReturn
			return m.fail("build shopping list for "+m.menu.Name, msg.err), nil
		}
		m.shopViewport.SetContent(renderMarkdown(msg.md, max(m.width-2, 20)))
		m.shopViewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q", "backspace":
			m.view = m.shopReturn
			m.shopLoading = false
			if m.view == viewMenus {
				return m, m.loadMenus()
			}
			return m, nil
		case "r":
			return m.openShopping()
		}
		var cmd tea.Cmd
		m.shopViewport, cmd = m.shopViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) viewShopping() string {
	if m.shopLoading {
		return m.shopSpinner.View() + " " + styleMuted().Render("Building shopping list for "+m.menu.Name+"…")
	}
	return m.shopViewport.View()
}
