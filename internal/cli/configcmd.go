package cli

import (
	"fmt"
	"strings"

	"groceries-cli/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings in ~/.groceries/config.json",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigGetCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"path":     path,
				"settings": app.cfg.Map(),
			}})
		},
	}
}

func newConfigGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.cfg.Get(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{args[0]: v}})
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting (an empty value clears it)",
		Long: strings.TrimSpace(`
Change one setting. Known keys: ` + strings.Join(config.Keys(), ", ") + `.
`),
		Example: strings.TrimSpace(`
groceries config set apiBaseURL http://localhost:4000/api/groceries/v1
groceries config set order catalog
groceries config set tui.theme ""
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.cfg.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := config.Save(app.cfg); err != nil {
				return writeErr(cmd, fmt.Errorf("save config: %w", err))
			}
			return writeOut(cmd, app, map[string]any{"data": app.cfg.Map()})
		},
	}
}
