package cli

import (
	"fmt"
	"strings"

	"groceries-cli/internal/model"
	"groceries-cli/internal/resolve"

	"github.com/spf13/cobra"
)

func newMealsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meals",
		Short: "Meal commands",
	}
	cmd.AddCommand(newMealsListCmd(app))
	cmd.AddCommand(newMealsShowCmd(app))
	cmd.AddCommand(newMealsCreateCmd(app))
	cmd.AddCommand(newMealsDeleteCmd(app))
	cmd.AddCommand(newMealsIngredientsCmd(app))
	cmd.AddCommand(newMealsAddIngredientsCmd(app))
	cmd.AddCommand(newMealsSetQuantityCmd(app))
	return cmd
}

// parseIngredientSpec reads "name=Salt,qty=1,unit=tsp,category=spice". A spec without
// '=' is taken as a bare name.
func parseIngredientSpec(s string) (model.IngredientDescriptor, error) {
	var d model.IngredientDescriptor
	s = strings.TrimSpace(s)
	if s == "" {
		return d, fmt.Errorf("empty --ingredient")
	}
	if !strings.Contains(s, "=") {
		d.Name = s
		return d, nil
	}
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return d, fmt.Errorf("invalid --ingredient %q: expected key=value pairs", s)
		}
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "name":
			d.Name = v
		case "qty", "quantity":
			d.Quantity = v
		case "unit":
			d.Unit = v
		case "category", "cat":
			d.Category = v
		default:
			return d, fmt.Errorf("invalid --ingredient %q: unknown key %q", s, k)
		}
	}
	return d, nil
}

func parseIngredientSpecs(specs []string) ([]model.IngredientDescriptor, error) {
	out := make([]model.IngredientDescriptor, 0, len(specs))
	for _, s := range specs {
		d, err := parseIngredientSpec(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func newMealsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List meals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			meals, err := repo.ListMeals(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": meals})
		},
	}
}

func newMealsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <meal-id>",
		Short: "Show a meal and its ingredients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mealID, err := parseID("meal", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			meal, err := repo.GetMeal(cmd.Context(), mealID)
			if err != nil {
				return writeErr(cmd, apiErr(err, "meal", mealID))
			}
			rows, err := repo.MealIngredients(cmd.Context(), mealID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"meal":        meal,
				"ingredients": rows,
			}})
		},
	}
}

func newMealsCreateCmd(app *App) *cobra.Command {
	var (
		name   string
		specs  []string
		menuID int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a meal with ingredients (existing catalog entries are reused by name)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := parseIngredientSpecs(specs)
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			catalog, err := repo.ListIngredients(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			draft := &resolve.MealDraft{Name: name, MenuID: menuID, Rows: rows}
			res, err := resolve.New(repo, app.logger).CreateMeal(cmd.Context(), draft, resolve.BuildCatalog(catalog))
			if err != nil {
				if draft.Created() {
					return writeErr(cmd, partialMealError{mealID: draft.Meal.ID, err: err})
				}
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"meal":               draft.Meal,
				"createdIngredients": nonNil(res.Created),
				"ingredients":        nonNil(res.Links),
				"menuId":             menuID,
			}})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Meal name")
	cmd.Flags().StringArrayVar(&specs, "ingredient", nil, `Ingredient row "name=..,qty=..,unit=..,category=.." (repeatable)`)
	cmd.Flags().Int64Var(&menuID, "menu", 0, "Attach the new meal to this menu")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newMealsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <meal-id>",
		Short: "Delete a meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mealID, err := parseID("meal", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			meal, err := repo.GetMeal(cmd.Context(), mealID)
			if err != nil {
				return writeErr(cmd, apiErr(err, "meal", mealID))
			}
			if err := confirm(cmd, app, "delete meal "+meal.Name, yes); err != nil {
				return writeErr(cmd, err)
			}
			if err := repo.DeleteMeal(cmd.Context(), mealID); err != nil {
				return writeErr(cmd, apiErr(err, "meal", mealID))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": meal}})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not prompt for confirmation")
	return cmd
}

func newMealsIngredientsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ingredients <meal-id>",
		Short: "List a meal's ingredients with quantities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mealID, err := parseID("meal", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			rows, err := repo.MealIngredients(cmd.Context(), mealID)
			if err != nil {
				return writeErr(cmd, apiErr(err, "meal", mealID))
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}
}

func newMealsAddIngredientsCmd(app *App) *cobra.Command {
	var specs []string

	cmd := &cobra.Command{
		Use:   "add-ingredients <meal-id>",
		Short: "Add ingredient rows to an existing meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mealID, err := parseID("meal", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			rows, err := parseIngredientSpecs(specs)
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := repo.GetMeal(cmd.Context(), mealID); err != nil {
				return writeErr(cmd, apiErr(err, "meal", mealID))
			}
			catalog, err := repo.ListIngredients(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := resolve.New(repo, app.logger).ResolveAndPersist(cmd.Context(), mealID, rows, resolve.BuildCatalog(catalog))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"createdIngredients": nonNil(res.Created),
				"ingredients":        nonNil(res.Links),
			}})
		},
	}

	cmd.Flags().StringArrayVar(&specs, "ingredient", nil, `Ingredient row "name=..,qty=..,unit=..,category=.." (repeatable)`)
	_ = cmd.MarkFlagRequired("ingredient")
	return cmd
}

func newMealsSetQuantityCmd(app *App) *cobra.Command {
	var quantity, unit string

	cmd := &cobra.Command{
		Use:   "set-quantity <meal-id> <ingredient-id>",
		Short: "Change the quantity (and unit) of one of a meal's ingredients",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mealID, err := parseID("meal", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ingredientID, err := parseID("ingredient", args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			link := model.MealIngredientLink{
				MealID:       mealID,
				IngredientID: ingredientID,
				Quantity:     strings.TrimSpace(quantity),
				Unit:         strings.TrimSpace(unit),
			}
			if err := repo.UpdateMealIngredient(cmd.Context(), link); err != nil {
				return writeErr(cmd, apiErr(err, "meal ingredient", ingredientID))
			}
			return writeOut(cmd, app, map[string]any{"data": link})
		},
	}

	cmd.Flags().StringVar(&quantity, "quantity", "", "New quantity")
	cmd.Flags().StringVar(&unit, "unit", "", "Unit for this meal (empty keeps the catalog unit)")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
