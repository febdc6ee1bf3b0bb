package tui

import (
	"context"
	"fmt"
	"strings"

	"groceries-cli/internal/model"
	"groceries-cli/internal/resolve"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// editMealForm lists a meal's ingredients. The highlighted row's quantity and unit can
// be edited in place, and new rows go through the same create-or-reuse path as the
// new meal form.
type editMealForm struct {
	meal    model.Meal
	rows    []model.MealIngredient
	loading bool
	cursor  int

	editing bool
	qty     textinput.Model
	unit    *acInput
	editCol int // 0 quantity, 1 unit

	adding bool
	add    *ingredientRow
	addCol int

	opts   formOptions
	saving bool
	err    string
}

func (f *editMealForm) setOptions(opts formOptions) {
	f.opts = opts
	f.unit.SetSuggestions(opts.units)
	if f.add != nil {
		f.add.setOptions(opts)
	}
}

func (f *editMealForm) focusEdit() {
	f.qty.Blur()
	f.unit.Blur()
	if f.editCol == 0 {
		f.qty.Focus()
	} else {
		f.unit.Focus()
	}
}

func (m appModel) openEditMeal(meal model.Meal) (tea.Model, tea.Cmd) {
	m.edit = &editMealForm{
		meal:    meal,
		loading: true,
		qty:     newTextInput("qty"),
		unit:    newACInput("unit", nil),
	}
	m.modal = modalEditMeal
	return m, tea.Batch(m.loadMealIngredients(meal), m.loadFormOptions())
}

func (m appModel) loadMealIngredients(meal model.Meal) tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		rows, err := repo.MealIngredients(context.Background(), meal.ID)
		return mealIngredientsMsg{meal: meal, rows: rows, err: err}
	}
}

func (m appModel) updateEditMeal(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.edit
	if f.saving {
		return m, nil
	}
	switch {
	case f.editing:
		return m.updateEditRow(k)
	case f.adding:
		return m.updateAddRow(k)
	}

	switch k.String() {
	case "esc", "q":
		m.modal = modalNone
		m.edit = nil
		return m, nil
	case "up", "k":
		if f.cursor > 0 {
			f.cursor--
		}
	case "down", "j":
		if f.cursor < len(f.rows)-1 {
			f.cursor++
		}
	case "enter", "e":
		if len(f.rows) == 0 {
			return m, nil
		}
		row := f.rows[f.cursor]
		f.qty.SetValue(row.Quantity)
		f.qty.CursorEnd()
		f.unit.SetValue(row.EffectiveUnit())
		f.editCol = 0
		f.editing = true
		f.err = ""
		f.focusEdit()
	case "a":
		f.add = newIngredientRow(f.opts)
		f.addCol = 0
		f.add.focus(0)
		f.adding = true
		f.err = ""
	}
	return m, nil
}

func (m appModel) updateEditRow(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.edit
	if f.editCol == 1 && f.unit.Suggesting() && f.unit.HandleKey(k) {
		return m, nil
	}
	switch k.String() {
	case "esc":
		f.editing = false
		f.qty.Blur()
		f.unit.Blur()
		return m, nil
	case "tab", "shift+tab":
		f.editCol = 1 - f.editCol
		f.focusEdit()
		return m, nil
	case "enter", "ctrl+s":
		row := f.rows[f.cursor]
		link := model.MealIngredientLink{
			MealID:       f.meal.ID,
			IngredientID: row.Ingredient.ID,
			Quantity:     strings.TrimSpace(f.qty.Value()),
			Unit:         strings.TrimSpace(f.unit.Value()),
		}
		f.saving = true
		repo := m.repo
		return m, func() tea.Msg {
			err := repo.UpdateMealIngredient(context.Background(), link)
			return linkSavedMsg{link: link, err: err}
		}
	}
	if f.editCol == 0 {
		f.qty, _ = f.qty.Update(k)
	} else {
		f.unit.HandleKey(k)
	}
	return m, nil
}

func (m appModel) updateAddRow(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.edit
	if a := f.add.ac(f.addCol); a != nil && k.String() != "ctrl+s" && a.Suggesting() && a.HandleKey(k) {
		return m, nil
	}
	switch k.String() {
	case "esc":
		f.adding = false
		f.add = nil
		return m, nil
	case "tab", "down":
		f.addCol = (f.addCol + 1) % rowFields
		f.add.blur()
		f.add.focus(f.addCol)
		return m, nil
	case "shift+tab", "up":
		f.addCol = (f.addCol + rowFields - 1) % rowFields
		f.add.blur()
		f.add.focus(f.addCol)
		return m, nil
	case "enter", "ctrl+s":
		if !f.opts.ready {
			f.err = "still loading the ingredient catalog"
			return m, nil
		}
		d := f.add.descriptor()
		if d.Blank() {
			f.adding = false
			f.add = nil
			return m, nil
		}
		if _, err := resolve.Partition([]model.IngredientDescriptor{d}, f.opts.catalog); err != nil {
			f.err = err.Error()
			return m, nil
		}
		f.saving = true
		resolver, mealID, catalog := m.resolver, f.meal.ID, f.opts.catalog
		return m, func() tea.Msg {
			res, err := resolver.ResolveAndPersist(context.Background(), mealID, []model.IngredientDescriptor{d}, catalog)
			return ingredientsAddedMsg{mealID: mealID, res: res, err: err}
		}
	}
	if a := f.add.ac(f.addCol); a != nil {
		a.HandleKey(k)
	} else {
		f.add.qty, _ = f.add.qty.Update(k)
	}
	return m, nil
}

func (m appModel) settleEditMeal(msg tea.Msg) (tea.Model, tea.Cmd) {
	f := m.edit
	switch msg := msg.(type) {
	case mealIngredientsMsg:
		if f == nil || f.meal.ID != msg.meal.ID {
			return m, nil
		}
		f.loading = false
		if msg.err != nil {
			f.err = msg.err.Error()
			return m.fail("load ingredients of "+msg.meal.Name, msg.err), nil
		}
		f.rows = msg.rows
		f.cursor = min(f.cursor, max(len(f.rows)-1, 0))
		return m, nil

	case linkSavedMsg:
		if f == nil {
			return m, nil
		}
		f.saving = false
		if msg.err != nil {
			f.err = msg.err.Error()
			return m.fail("save ingredient", msg.err), nil
		}
		f.editing = false
		f.qty.Blur()
		f.unit.Blur()
		return m.ok("Saved"), m.loadMealIngredients(f.meal)

	case ingredientsAddedMsg:
		if f == nil || f.meal.ID != msg.mealID {
			return m, nil
		}
		f.saving = false
		if msg.err != nil {
			f.err = msg.err.Error()
			f.setOptions(f.opts.withCreated(msg.res.Created))
			return m.fail("add ingredient", msg.err), m.loadFormOptions()
		}
		f.adding = false
		f.add = nil
		cmds := []tea.Cmd{m.loadMealIngredients(f.meal)}
		if len(msg.res.Created) > 0 {
			cmds = append(cmds, m.loadFormOptions())
		}
		return m.ok(fmt.Sprintf("Added ingredient to %s", f.meal.Name)), tea.Batch(cmds...)
	}
	return m, nil
}

func (m appModel) viewEditMeal() string {
	f := m.edit
	bodyW := modalBodyWidth(m.width)
	sel := lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg)

	var b strings.Builder
	switch {
	case f.loading:
		b.WriteString(styleMuted().Render("Loading…") + "\n")
	case len(f.rows) == 0:
		b.WriteString(styleMuted().Render("No ingredients yet.") + "\n")
	}
	for i, row := range f.rows {
		amount := strings.TrimSpace(row.Quantity + " " + row.EffectiveUnit())
		line := fmt.Sprintf("%-24s %s", row.Ingredient.Name, emptyAsDash(amount))
		if i == f.cursor {
			b.WriteString(sel.Render("> "+line) + "\n")
			if f.editing {
				half := (bodyW - 1) / 2
				b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
					renderInputLine(half, f.qty.View()), " ", f.unit.InputView(bodyW-half-1)) + "\n")
				if sv := f.unit.SuggestionsView(); sv != "" {
					b.WriteString(sv + "\n")
				}
			}
			continue
		}
		b.WriteString("  " + line + "\n")
	}

	if f.adding {
		b.WriteString("\n" + styleMuted().Render("New ingredient (name / qty · unit · category)") + "\n")
		b.WriteString(f.add.view(bodyW, f.addCol) + "\n")
	}
	if f.saving {
		b.WriteString("\n" + styleMuted().Render("Saving…"))
	}
	if f.err != "" {
		b.WriteString("\n" + styleError().Width(bodyW).Render(f.err))
	}

	help := "↑/↓: move  enter: edit quantity  a: add ingredient  esc: close"
	switch {
	case f.editing:
		help = "tab: quantity/unit  enter: save  esc: cancel"
	case f.adding:
		help = "tab: next field  enter: add  esc: cancel"
	}
	b.WriteString("\n" + styleMuted().Width(bodyW).Render(help))
	return renderModalBox(m.width, "Ingredients of "+f.meal.Name, b.String())
}
