package tui

import (
	"io"
	"log"
	"os"

	"groceries-cli/internal/api"
	"groceries-cli/internal/attach"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Order attach.Order
	// Theme is "auto", "light" or "dark". GROCERIES_TUI_THEME overrides it.
	Theme string
}

// Run starts the interactive UI on the alternate screen and blocks until it exits.
// Set GROCERIES_DEBUG_LOG to a file path to keep the UI's log output.
func Run(repo api.Repository, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference(opts.Theme)

	if path := os.Getenv("GROCERIES_DEBUG_LOG"); path != "" {
		f, err := tea.LogToFile(path, "groceries")
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	m := newAppModel(repo, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
