package cli

import (
	"errors"
	"strings"

	"groceries-cli/internal/api"
	"groceries-cli/internal/attach"
	"groceries-cli/internal/model"

	"github.com/spf13/cobra"
)

func newMenusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menus",
		Short: "Menu commands",
	}
	cmd.AddCommand(newMenusListCmd(app))
	cmd.AddCommand(newMenusShowCmd(app))
	cmd.AddCommand(newMenusCreateCmd(app))
	cmd.AddCommand(newMenusDeleteCmd(app))
	cmd.AddCommand(newMenusMealsCmd(app))
	cmd.AddCommand(newMenusAttachCmd(app))
	cmd.AddCommand(newMenusDetachCmd(app))
	return cmd
}

func newMenusListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List menus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			menus, err := repo.ListMenus(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": menus})
		},
	}
}

func newMenusShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <menu-id>",
		Short: "Show a menu and its meals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			menu, err := repo.GetMenu(cmd.Context(), menuID)
			if err != nil {
				return writeErr(cmd, apiErr(err, "menu", menuID))
			}
			meals, err := repo.MenuMeals(cmd.Context(), menuID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"menu":  menu,
				"meals": meals,
			}})
		},
	}
}

func newMenusCreateCmd(app *App) *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one menu per --name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var clean []string
			for _, n := range names {
				if n = strings.TrimSpace(n); n != "" {
					clean = append(clean, n)
				}
			}
			if len(clean) == 0 {
				return writeErr(cmd, errors.New("at least one non-empty --name is required"))
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			created := make([]model.Menu, 0, len(clean))
			for _, n := range clean {
				m, err := repo.CreateMenu(cmd.Context(), n)
				if err != nil {
					// Menus created so far are reported on stdout before failing.
					_ = writeOut(cmd, app, map[string]any{"data": created})
					return writeErr(cmd, err)
				}
				created = append(created, m)
			}
			return writeOut(cmd, app, map[string]any{"data": created})
		},
	}

	cmd.Flags().StringArrayVar(&names, "name", nil, "Menu name (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newMenusDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <menu-id>",
		Short: "Delete a menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			menu, err := repo.GetMenu(cmd.Context(), menuID)
			if err != nil {
				return writeErr(cmd, apiErr(err, "menu", menuID))
			}
			if err := confirm(cmd, app, "delete menu "+menu.Name, yes); err != nil {
				return writeErr(cmd, err)
			}
			if err := repo.DeleteMenu(cmd.Context(), menuID); err != nil {
				return writeErr(cmd, apiErr(err, "menu", menuID))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": menu}})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not prompt for confirmation")
	return cmd
}

func newMenusMealsCmd(app *App) *cobra.Command {
	var (
		unattached bool
		filter     string
		orderFlag  string
	)

	cmd := &cobra.Command{
		Use:   "meals <menu-id>",
		Short: "Show meals on a menu and meals that can be attached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			order, err := app.order(orderFlag)
			if err != nil {
				return writeErr(cmd, err)
			}
			v, st, err := loadMenuView(cmd, app, menuID)
			if err != nil {
				return writeErr(cmd, err)
			}
			v.Order = order
			if unattached {
				return writeOut(cmd, app, map[string]any{"data": v.Filter(filter)})
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"menu":       st.Menu,
				"attached":   v.Attached(),
				"unattached": v.Filter(filter),
			}})
		},
	}

	cmd.Flags().BoolVar(&unattached, "unattached", false, "Only list meals that are not on the menu")
	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive name prefix for attachable meals")
	cmd.Flags().StringVar(&orderFlag, "order", "", "Attachable order: name|catalog (default: config order, then name)")
	return cmd
}

func loadMenuView(cmd *cobra.Command, app *App, menuID int64) (*attach.View[model.Meal], api.MenuState, error) {
	repo, err := app.repository()
	if err != nil {
		return nil, api.MenuState{}, err
	}
	st, err := api.HydrateMenu(cmd.Context(), repo, menuID)
	if err != nil {
		return nil, api.MenuState{}, apiErr(err, "menu", menuID)
	}
	return attach.NewView(st.AllMeals, st.Attached), st, nil
}

func newMenusAttachCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <menu-id> <meal-id>",
		Short: "Attach a meal to a menu",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			mealID, err := parseID("meal", args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			v, st, err := loadMenuView(cmd, app, menuID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := v.Attach(mealID); err != nil {
				if errors.Is(err, attach.ErrNotMovable) && !attach.Contains(v.All(), mealID) {
					return writeErr(cmd, errNotFound("meal", mealID))
				}
				return writeErr(cmd, err)
			}
			if err := app.repo.AttachMealToMenu(cmd.Context(), mealID, menuID); err != nil {
				return writeErr(cmd, apiErr(err, "meal", mealID))
			}
			if o, err := app.order(""); err == nil {
				v.Order = o
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"menu":       st.Menu,
				"attached":   v.Attached(),
				"unattached": v.Unattached(),
			}})
		},
	}
}

func newMenusDetachCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <meal-id>",
		Short: "Remove a meal from its menu",
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
			if err := repo.DetachMealFromMenus(cmd.Context(), mealID); err != nil {
				return writeErr(cmd, apiErr(err, "meal", mealID))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"mealId": mealID, "detached": true}})
		},
	}
}
