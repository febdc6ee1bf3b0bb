package api

import (
	"context"

	"groceries-cli/internal/model"

	"golang.org/x/sync/errgroup"
)

// MenuState is everything a menu view needs to render.
type MenuState struct {
	Menu     model.Menu
	AllMeals []model.Meal
	Attached []model.Meal
}

// HydrateMenu fetches the menu, the meal catalog and the menu's meals concurrently and
// returns only once all three have settled, so callers never render a partial state.
func HydrateMenu(ctx context.Context, repo Repository, menuID int64) (MenuState, error) {
	var st MenuState
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := repo.GetMenu(gctx, menuID)
		st.Menu = m
		return err
	})
	g.Go(func() error {
		xs, err := repo.ListMeals(gctx)
		st.AllMeals = xs
		return err
	})
	g.Go(func() error {
		xs, err := repo.MenuMeals(gctx, menuID)
		st.Attached = xs
		return err
	})
	if err := g.Wait(); err != nil {
		return MenuState{}, err
	}
	return st, nil
}

// FormOptions backs the ingredient form's autocomplete fields.
type FormOptions struct {
	Catalog    []model.Ingredient
	Categories []string
	Units      []string
}

// HydrateForm fetches the ingredient catalog snapshot and the form enumerations.
func HydrateForm(ctx context.Context, repo Repository) (FormOptions, error) {
	var fo FormOptions
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		xs, err := repo.ListIngredients(gctx)
		fo.Catalog = xs
		return err
	})
	g.Go(func() error {
		xs, err := repo.IngredientCategories(gctx)
		fo.Categories = xs
		return err
	})
	g.Go(func() error {
		xs, err := repo.IngredientUnits(gctx)
		fo.Units = xs
		return err
	})
	if err := g.Wait(); err != nil {
		return FormOptions{}, err
	}
	return fo, nil
}
