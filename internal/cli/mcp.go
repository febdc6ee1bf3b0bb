package cli

import (
	"errors"
	"strings"

	"groceries-cli/internal/api"
	"groceries-cli/internal/mcpserver"

	"github.com/spf13/cobra"
)

func newMCPCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve menu tools over HTTP for agents",
		Long: strings.TrimSpace(`
Serve the menu tools (list_menus, menu_meals, attach_meal, create_meal, shopping_list)
as MCP tool calls over HTTP. POST a CallToolRequest to / and GET /tools for the list.
`),
		Example: strings.TrimSpace(`
groceries mcp --addr 127.0.0.1:8011
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("mcp: missing --addr"))
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			base := app.APIBase
			if c, ok := repo.(*api.Client); ok {
				base = c.BaseURL()
			}
			_ = writeOut(cmd, app, map[string]any{"data": map[string]any{
				"addr":  listenAddr,
				"api":   base,
				"tools": mcpserver.Tools(),
			}})
			if err := mcpserver.New(repo, app.logger).ListenAndServe(cmd.Context(), listenAddr); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8011", "Listen address")
	return cmd
}
