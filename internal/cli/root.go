package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"groceries-cli/internal/api"
	"groceries-cli/internal/attach"
	"groceries-cli/internal/config"
	"groceries-cli/internal/format"
	"groceries-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	APIBase    string
	Format     string
	PrettyJSON bool
	Verbose    bool

	cfg    *config.Config
	repo   api.Repository
	logger *slog.Logger

	// isTerminal reports whether stdin can answer confirmation prompts.
	isTerminal func() bool
}

func NewRootCmd() *cobra.Command {
	app := &App{isTerminal: stdinIsTerminal}

	cmd := &cobra.Command{
		Use:          "groceries",
		Short:        "Menus, meals and shopping lists for the groceries API",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  groceries

  # Scriptable commands
  groceries menus list
  groceries menus meals 1 --unattached --filter ch

  # Create a meal, reusing catalog ingredients by name
  groceries meals create --name Soup --ingredient "name=Salt,qty=1,unit=tsp" --menu 1

  # Direct menu lookup (shortcut for: groceries menus show 1)
  groceries 1
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd)
	}

	cmd.PersistentFlags().StringVar(&app.APIBase, "api", envOr("GROCERIES_API", ""), "API base URL (default: config apiBaseURL, then "+api.DefaultBaseURL+")")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("GROCERIES_FORMAT", ""), "Output format (json|edn|table)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log API requests to stderr")

	cmd.AddCommand(newMenusCmd(app))
	cmd.AddCommand(newMealsCmd(app))
	cmd.AddCommand(newIngredientsCmd(app))
	cmd.AddCommand(newShoppingListCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newMCPCmd(app))
	cmd.AddCommand(newDoctorCmd(app))

	return cmd
}

// init resolves settings with the precedence flag > env > config file > default.
func (app *App) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg
	if app.APIBase == "" {
		app.APIBase = cfg.APIBaseURL
	}
	if app.Format == "" {
		app.Format = cfg.Format
	}
	if app.Format == "" {
		app.Format = "json"
	}
	app.logger = newLogger(cmd.ErrOrStderr(), app.Verbose)
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// repository returns the API client, created on first use.
func (app *App) repository() (api.Repository, error) {
	if app.repo != nil {
		return app.repo, nil
	}
	c, err := api.NewClient(app.APIBase, api.WithLogger(app.logger))
	if err != nil {
		return nil, err
	}
	app.repo = c
	return c, nil
}

func (app *App) order(flag string) (attach.Order, error) {
	if flag == "" && app.cfg != nil {
		flag = app.cfg.Order
	}
	return attach.ParseOrder(flag)
}

func runTUI(cmd *cobra.Command, app *App) error {
	repo, err := app.repository()
	if err != nil {
		return writeErr(cmd, err)
	}
	order, err := app.order("")
	if err != nil {
		return writeErr(cmd, err)
	}
	opts := tui.Options{Order: order}
	if app.cfg != nil && app.cfg.TUI != nil {
		opts.Theme = app.cfg.TUI.Theme
	}
	return tui.Run(repo, opts)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
