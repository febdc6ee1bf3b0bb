package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"groceries-cli/internal/config"
	"groceries-cli/internal/shoplist"

	"github.com/spf13/cobra"
)

func newShoppingListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "shopping-list",
		Aliases: []string{"shop"},
		Short:   "Shopping list commands",
	}
	cmd.AddCommand(newShoppingDownloadCmd(app))
	cmd.AddCommand(newShoppingBuildCmd(app))
	return cmd
}

func newShoppingDownloadCmd(app *App) *cobra.Command {
	var (
		out  string
		text bool
	)

	cmd := &cobra.Command{
		Use:   "download <menu-id>",
		Short: "Download the server-generated shopping list for a menu",
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
			sl, err := repo.ShoppingList(cmd.Context(), menuID)
			if err != nil {
				return writeErr(cmd, apiErr(err, "menu", menuID))
			}

			if text {
				lines, err := shoplist.ParseHTML(bytes.NewReader(sl.Body))
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"menuId": menuID,
					"lines":  lines,
				}})
			}
			if out != "" {
				if err := writeFile(out, sl.Body); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"menuId":      menuID,
					"path":        out,
					"bytes":       len(sl.Body),
					"contentType": sl.ContentType,
					"filename":    sl.Filename,
				}})
			}
			_, err = cmd.OutOrStdout().Write(sl.Body)
			return err
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the document to this file")
	cmd.Flags().BoolVar(&text, "text", false, "Extract the list lines from the HTML document")
	return cmd
}

func newShoppingBuildCmd(app *App) *cobra.Command {
	var (
		as     string
		out    string
		render bool
		width  int
	)

	cmd := &cobra.Command{
		Use:   "build <menu-id>",
		Short: "Build a shopping list locally from the menu's meals",
		Long: strings.TrimSpace(`
Build a shopping list from the meals on a menu. Quantities of the same ingredient
are summed per unit when they are numeric; otherwise they are listed side by side.
`),
		Example: strings.TrimSpace(`
groceries shopping-list build 1 --render
groceries shopping-list build 1 --as xlsx --out winter.xlsx
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			l, err := shoplist.Build(cmd.Context(), repo, menuID)
			if err != nil {
				return writeErr(cmd, apiErr(err, "menu", menuID))
			}

			var b []byte
			switch strings.ToLower(strings.TrimSpace(as)) {
			case "", "markdown", "md":
				md := shoplist.Markdown(l)
				if render {
					style := ""
					if app.cfg != nil && app.cfg.TUI != nil {
						style = app.cfg.TUI.Theme
					}
					md, err = shoplist.Terminal(md, style, width)
					if err != nil {
						return writeErr(cmd, err)
					}
				}
				b = []byte(md)
			case "text", "txt":
				b = []byte(shoplist.Text(l, width))
			case "html":
				b, err = shoplist.HTML(l)
				if err != nil {
					return writeErr(cmd, err)
				}
			case "xlsx":
				if out == "" {
					return writeErr(cmd, fmt.Errorf("--as xlsx requires --out"))
				}
				var buf bytes.Buffer
				if err := shoplist.XLSX(l, &buf); err != nil {
					return writeErr(cmd, err)
				}
				b = buf.Bytes()
			case "json", "edn", "table":
				return writeOut(cmd, app, map[string]any{"data": l})
			default:
				return writeErr(cmd, fmt.Errorf("invalid --as %q (expected markdown|text|html|xlsx)", as))
			}

			if out != "" {
				if err := writeFile(out, b); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"menuId": menuID,
					"path":   out,
					"bytes":  len(b),
					"items":  l.Len(),
				}})
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	cmd.Flags().StringVar(&as, "as", "markdown", "Document type: markdown|text|html|xlsx|json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the document to this file")
	cmd.Flags().BoolVar(&render, "render", false, "Render markdown for the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for text and rendered output")
	return cmd
}

func writeFile(path string, b []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return config.AtomicWriteFile(dir, "."+filepath.Base(abs)+".*.tmp", abs, b, 0o644)
}
