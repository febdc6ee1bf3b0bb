package resolve

import (
	"context"
	"strings"

	"groceries-cli/internal/model"
)

// MealDraft is the state of a "new meal" form. Rows is owned by the form and is never
// modified here; the progress fields record which writes already succeeded so that a
// retry continues where the last attempt stopped.
type MealDraft struct {
	Name   string
	MenuID int64
	Rows   []model.IngredientDescriptor

	Meal             model.Meal
	IngredientsSaved bool
	Attached         bool
}

// Created reports whether the meal itself already exists on the server.
func (d *MealDraft) Created() bool { return d.Meal.ID != 0 }

// CreateMeal runs create meal -> create ingredients -> associate ingredients ->
// attach to menu (when MenuID is set). Each step runs only after the previous one
// succeeded; nothing is rolled back when a later step fails.
func (r *Resolver) CreateMeal(ctx context.Context, draft *MealDraft, catalog Catalog) (Result, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" && !draft.Created() {
		return Result{}, ErrBlankMealName
	}
	// Validate rows before the first write so a bad row never leaves a bare meal behind.
	if _, err := Partition(draft.Rows, catalog); err != nil {
		return Result{}, err
	}

	if !draft.Created() {
		meal, err := r.repo.CreateMeal(ctx, name)
		if err != nil {
			return Result{}, &StepError{Step: StepCreateMeal, Err: err}
		}
		draft.Meal = meal
		r.logger.Debug("meal created", "meal_id", meal.ID, "name", meal.Name)
	}

	var res Result
	if !draft.IngredientsSaved {
		var err error
		res, err = r.ResolveAndPersist(ctx, draft.Meal.ID, draft.Rows, catalog)
		if err != nil {
			return res, err
		}
		draft.IngredientsSaved = true
	}

	if draft.MenuID != 0 && !draft.Attached {
		if err := r.repo.AttachMealToMenu(ctx, draft.Meal.ID, draft.MenuID); err != nil {
			return res, &StepError{Step: StepAttachMenu, Err: err}
		}
		draft.Attached = true
	}
	return res, nil
}
