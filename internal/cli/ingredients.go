package cli

import (
	"errors"
	"strings"

	"groceries-cli/internal/attach"
	"groceries-cli/internal/model"

	"github.com/spf13/cobra"
)

func newIngredientsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingredients",
		Short: "Ingredient catalog commands",
	}
	cmd.AddCommand(newIngredientsListCmd(app))
	cmd.AddCommand(newIngredientsCreateCmd(app))
	cmd.AddCommand(newIngredientsEnumCmd(app, "categories", "List ingredient categories"))
	cmd.AddCommand(newIngredientsEnumCmd(app, "units", "List ingredient units"))
	return cmd
}

func newIngredientsListCmd(app *App) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the ingredient catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			xs, err := repo.ListIngredients(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": attach.FilterByPrefix(attach.SortByName(xs), filter)})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive name prefix")
	return cmd
}

func newIngredientsCreateCmd(app *App) *cobra.Command {
	var name, category, unit string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a catalog ingredient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return writeErr(cmd, errors.New("--name must not be empty"))
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			in, err := repo.CreateIngredient(cmd.Context(), model.NewIngredient{
				Name:     name,
				Category: strings.TrimSpace(category),
				Unit:     strings.TrimSpace(unit),
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": in})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Ingredient name")
	cmd.Flags().StringVar(&category, "category", "", "Category (e.g. produce)")
	cmd.Flags().StringVar(&unit, "unit", "", "Default unit")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newIngredientsEnumCmd(app *App, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			fetch := repo.IngredientCategories
			if use == "units" {
				fetch = repo.IngredientUnits
			}
			xs, err := fetch(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": xs})
		},
	}
}
