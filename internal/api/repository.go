// Package api is the client side of the groceries REST API.
//
// Views and resolvers depend on Repository only; Client implements it over HTTP and
// memrepo implements it in memory for tests.
package api

import (
	"context"

	"groceries-cli/internal/model"
)

type Repository interface {
	ListMenus(ctx context.Context) ([]model.Menu, error)
	GetMenu(ctx context.Context, menuID int64) (model.Menu, error)
	CreateMenu(ctx context.Context, name string) (model.Menu, error)
	DeleteMenu(ctx context.Context, menuID int64) error
	MenuMeals(ctx context.Context, menuID int64) ([]model.Meal, error)
	ShoppingList(ctx context.Context, menuID int64) (model.ShoppingList, error)

	ListMeals(ctx context.Context) ([]model.Meal, error)
	GetMeal(ctx context.Context, mealID int64) (model.Meal, error)
	CreateMeal(ctx context.Context, name string) (model.Meal, error)
	DeleteMeal(ctx context.Context, mealID int64) error
	AttachMealToMenu(ctx context.Context, mealID, menuID int64) error
	DetachMealFromMenus(ctx context.Context, mealID int64) error
	MealIngredients(ctx context.Context, mealID int64) ([]model.MealIngredient, error)

	ListIngredients(ctx context.Context) ([]model.Ingredient, error)
	CreateIngredient(ctx context.Context, in model.NewIngredient) (model.Ingredient, error)
	CreateIngredientsBatch(ctx context.Context, in []model.NewIngredient) ([]model.Ingredient, error)
	IngredientCategories(ctx context.Context) ([]string, error)
	IngredientUnits(ctx context.Context) ([]string, error)

	CreateMealIngredient(ctx context.Context, link model.MealIngredientLink) error
	CreateMealIngredientsBatch(ctx context.Context, links []model.MealIngredientLink) error
	UpdateMealIngredient(ctx context.Context, link model.MealIngredientLink) error
}
