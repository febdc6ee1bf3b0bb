package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"groceries-cli/internal/api"
	"groceries-cli/internal/model"
	"groceries-cli/internal/resolve"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const rowFields = 4

// ingredientRow is one "name / quantity / unit / category" line of a form.
type ingredientRow struct {
	name     *acInput
	qty      textinput.Model
	unit     *acInput
	category *acInput
}

func newIngredientRow(opts formOptions) *ingredientRow {
	return &ingredientRow{
		name:     newACInput("ingredient", opts.catalog.Names()),
		qty:      newTextInput("qty"),
		unit:     newACInput("unit", opts.units),
		category: newACInput("category", opts.categories),
	}
}

func (r *ingredientRow) descriptor() model.IngredientDescriptor {
	return model.IngredientDescriptor{
		Name:     r.name.Value(),
		Quantity: r.qty.Value(),
		Unit:     r.unit.Value(),
		Category: r.category.Value(),
	}
}

func (r *ingredientRow) blur() {
	r.name.Blur()
	r.qty.Blur()
	r.unit.Blur()
	r.category.Blur()
}

func (r *ingredientRow) focus(col int) {
	switch col {
	case 0:
		r.name.Focus()
	case 1:
		r.qty.Focus()
	case 2:
		r.unit.Focus()
	default:
		r.category.Focus()
	}
}

// ac returns the autocomplete input at col, or nil for the quantity column.
func (r *ingredientRow) ac(col int) *acInput {
	switch col {
	case 0:
		return r.name
	case 2:
		return r.unit
	case 3:
		return r.category
	}
	return nil
}

// setOptions swaps the suggestion sources and closes any open list.
func (r *ingredientRow) setOptions(opts formOptions) {
	r.name.SetSuggestions(opts.catalog.Names())
	r.unit.SetSuggestions(opts.units)
	r.category.SetSuggestions(opts.categories)
	r.name.Dismiss()
	r.unit.Dismiss()
	r.category.Dismiss()
}

func (r *ingredientRow) view(width int, focusCol int) string {
	colW := max((width-2)/3, 8)
	line := lipgloss.JoinHorizontal(lipgloss.Top,
		renderInputLine(colW, r.qty.View()), " ",
		r.unit.InputView(colW), " ",
		r.category.InputView(width-2*colW-2),
	)
	out := []string{r.name.InputView(width)}
	if focusCol == 0 {
		if sv := r.name.SuggestionsView(); sv != "" {
			out = append(out, sv)
		}
	}
	out = append(out, line)
	if a := r.ac(focusCol); a != nil && focusCol > 0 {
		if sv := a.SuggestionsView(); sv != "" {
			out = append(out, sv)
		}
	}
	return strings.Join(out, "\n")
}

// formOptions is the catalog snapshot a form was opened with.
type formOptions struct {
	ready      bool
	catalog    resolve.Catalog
	categories []string
	units      []string
}

func newFormOptions(o api.FormOptions) formOptions {
	return formOptions{
		ready:      true,
		catalog:    resolve.BuildCatalog(o.Catalog),
		categories: o.Categories,
		units:      o.Units,
	}
}

// withCreated adds ingredients written by a failed attempt so a retry reuses them
// without waiting for the catalog reload.
func (o formOptions) withCreated(xs []model.Ingredient) formOptions {
	if len(xs) == 0 {
		return o
	}
	o.catalog = o.catalog.With(xs)
	return o
}

// mealForm is the "new meal" modal. The draft survives failed submissions so a retry
// continues after the last successful write.
type mealForm struct {
	name   textinput.Model
	rows   []*ingredientRow
	focus  int // 0 is the meal name, then rowFields per row
	opts   formOptions
	draft  *resolve.MealDraft
	saving bool
	err    string
}

func newMealForm() *mealForm {
	f := &mealForm{name: newTextInput("meal name")}
	f.rows = []*ingredientRow{newIngredientRow(f.opts)}
	f.setFocus(0)
	return f
}

func (f *mealForm) fields() int { return 1 + len(f.rows)*rowFields }

func (f *mealForm) setFocus(i int) {
	f.name.Blur()
	for _, r := range f.rows {
		r.blur()
	}
	f.focus = (i + f.fields()) % f.fields()
	if f.focus == 0 {
		f.name.Focus()
		return
	}
	row, col := f.pos()
	f.rows[row].focus(col)
}

func (f *mealForm) pos() (row, col int) {
	return (f.focus - 1) / rowFields, (f.focus - 1) % rowFields
}

// focusedAC is the autocomplete input with focus, if any.
func (f *mealForm) focusedAC() *acInput {
	if f.focus == 0 {
		return nil
	}
	row, col := f.pos()
	return f.rows[row].ac(col)
}

func (f *mealForm) addRow() {
	f.rows = append(f.rows, newIngredientRow(f.opts))
	f.setFocus(1 + (len(f.rows)-1)*rowFields)
}

func (f *mealForm) removeRow() {
	if f.focus == 0 || len(f.rows) == 1 {
		return
	}
	row, _ := f.pos()
	f.rows = append(f.rows[:row], f.rows[row+1:]...)
	f.setFocus(1 + min(row, len(f.rows)-1)*rowFields)
}

func (f *mealForm) descriptors() []model.IngredientDescriptor {
	out := make([]model.IngredientDescriptor, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r.descriptor())
	}
	return out
}

func (f *mealForm) setOptions(opts formOptions) {
	f.opts = opts
	for _, r := range f.rows {
		r.setOptions(opts)
	}
}

func (m appModel) openMealForm() (tea.Model, tea.Cmd) {
	m.form = newMealForm()
	m.modal = modalNewMeal
	return m, m.loadFormOptions()
}

func (m appModel) applyFormOptions(msg formOptionsMsg) appModel {
	if msg.err != nil {
		if m.form != nil {
			m.form.err = "could not load ingredients: " + msg.err.Error()
		}
		if m.edit != nil {
			m.edit.err = "could not load ingredients: " + msg.err.Error()
		}
		return m.fail("load ingredient catalog", msg.err)
	}
	opts := newFormOptions(msg.opts)
	if m.form != nil {
		m.form.setOptions(opts)
	}
	if m.edit != nil {
		m.edit.setOptions(opts)
	}
	return m
}

func (m appModel) updateMealForm(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f.saving {
		return m, nil
	}

	if a := f.focusedAC(); a != nil {
		switch k.String() {
		case "ctrl+s", "ctrl+a", "ctrl+d", "shift+tab":
		default:
			if a.Suggesting() && a.HandleKey(k) {
				return m, nil
			}
		}
	}

	switch k.String() {
	case "esc":
		m.modal = modalNone
		m.form = nil
		return m, nil
	case "ctrl+s":
		return m.submitMealForm()
	case "ctrl+a":
		f.addRow()
		return m, nil
	case "ctrl+d":
		f.removeRow()
		return m, nil
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return m, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return m, nil
	case "enter":
		if f.focus == f.fields()-1 {
			return m.submitMealForm()
		}
		f.setFocus(f.focus + 1)
		return m, nil
	}

	if f.focus == 0 {
		f.name, _ = f.name.Update(k)
		return m, nil
	}
	row, col := f.pos()
	if a := f.rows[row].ac(col); a != nil {
		a.HandleKey(k)
		return m, nil
	}
	f.rows[row].qty, _ = f.rows[row].qty.Update(k)
	return m, nil
}

func (m appModel) submitMealForm() (tea.Model, tea.Cmd) {
	f := m.form
	if !f.opts.ready {
		f.err = "still loading the ingredient catalog"
		return m, nil
	}
	if f.draft == nil {
		f.draft = &resolve.MealDraft{MenuID: m.menu.ID}
	}
	if !f.draft.Created() {
		f.draft.Name = f.name.Value()
	}
	if !f.draft.IngredientsSaved {
		f.draft.Rows = f.descriptors()
	}
	if _, err := resolve.Partition(f.draft.Rows, f.opts.catalog); err != nil {
		f.err = err.Error()
		return m, nil
	}
	if !f.draft.Created() && strings.TrimSpace(f.draft.Name) == "" {
		f.err = resolve.ErrBlankMealName.Error()
		return m, nil
	}

	f.saving = true
	f.err = ""
	draft, catalog, resolver := f.draft, f.opts.catalog, m.resolver
	return m, func() tea.Msg {
		res, err := resolver.CreateMeal(context.Background(), draft, catalog)
		return mealCreatedMsg{draft: draft, res: res, err: err}
	}
}

// settleNewMeal applies a finished create sequence. The panes only change once the whole
// sequence succeeded. On failure the ingredients that attempt created join the form's
// catalog at once and the catalog is re-fetched as well.
func (m appModel) settleNewMeal(msg mealCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.form != nil {
			m.form.saving = false
			m.form.err = describeMealError(msg.draft, msg.err)
			m.form.setOptions(m.form.opts.withCreated(msg.res.Created))
		}
		return m.fail("create meal", msg.err), m.loadFormOptions()
	}

	m.modal = modalNone
	m.form = nil
	if msg.draft.MenuID == m.menu.ID {
		m.meals.Add(msg.draft.Meal, msg.draft.Attached)
		m.refreshMeals(msg.draft.Meal.ID)
	}
	return m.ok(fmt.Sprintf("Created %s with %d ingredient(s)", msg.draft.Meal.Name, len(msg.res.Links))), nil
}

func describeMealError(d *resolve.MealDraft, err error) string {
	if step, ok := resolve.FailedStep(err); ok && d.Created() {
		return fmt.Sprintf("%s was saved, but %s failed: %v. ctrl+s retries from there.", d.Meal.Name, step, errors.Unwrap(err))
	}
	return err.Error()
}

func (m appModel) viewMealForm() string {
	f := m.form
	bodyW := modalBodyWidth(m.width)

	var b strings.Builder
	b.WriteString(styleMuted().Render("Name") + "\n")
	b.WriteString(renderInputLine(bodyW, f.name.View()) + "\n")
	if f.draft != nil && f.draft.Created() {
		b.WriteString(styleOK().Render("saved as meal #"+fmt.Sprint(f.draft.Meal.ID)) + "\n")
	}

	focusRow, focusCol := -1, -1
	if f.focus > 0 {
		focusRow, focusCol = f.pos()
	}
	for i, r := range f.rows {
		b.WriteString("\n" + styleMuted().Render(fmt.Sprintf("Ingredient %d  (name / qty · unit · category)", i+1)) + "\n")
		col := -1
		if i == focusRow {
			col = focusCol
		}
		b.WriteString(r.view(bodyW, col) + "\n")
	}

	switch {
	case !f.opts.ready:
		b.WriteString("\n" + styleMuted().Render("Loading ingredient catalog…"))
	case f.saving:
		b.WriteString("\n" + styleMuted().Render("Saving…"))
	}
	if f.err != "" {
		b.WriteString("\n" + styleError().Width(bodyW).Render(f.err))
	}
	b.WriteString("\n" + styleMuted().Width(bodyW).Render("tab: next  ctrl+a: add row  ctrl+d: remove row  ctrl+s: save  esc: cancel"))
	return renderModalBox(m.width, "New meal on "+m.menu.Name, b.String())
}

// existing meal modal

func (m appModel) openExistingMeal() (tea.Model, tea.Cmd) {
	names := make([]string, 0)
	for _, meal := range m.meals.Unattached() {
		names = append(names, meal.Name)
	}
	m.existing = newACInput("meal name", names)
	m.existing.Focus()
	m.modal = modalExistingMeal
	m.status = ""
	return m, nil
}

func (m appModel) updateExistingMeal(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		if m.existing.HandleKey(k) {
			return m, nil
		}
		m.modal = modalNone
		m.existing = nil
		return m, nil
	case "enter":
		name := model.NormalizeName(m.existing.Commit())
		for _, meal := range m.meals.Unattached() {
			if model.NormalizeName(meal.Name) == name {
				m.modal = modalNone
				m.existing = nil
				return m.attachMeal(meal)
			}
		}
		m.status = "no unattached meal named " + m.existing.Value()
		m.statusErr = true
		return m, nil
	}
	m.existing.HandleKey(k)
	return m, nil
}

func (m appModel) viewExistingMeal() string {
	bodyW := modalBodyWidth(m.width)
	content := m.existing.View(bodyW) + "\n\n" +
		styleMuted().Width(bodyW).Render("type to search   ↑/↓: choose   enter: add to menu   esc: cancel")
	return renderModalBox(m.width, "Add a meal to "+m.menu.Name, content)
}
