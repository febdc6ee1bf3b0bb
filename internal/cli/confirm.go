package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// confirm gates a destructive action. --yes skips the prompt; without it a terminal
// must answer y/yes.
func confirm(cmd *cobra.Command, app *App, action string, yes bool) error {
	if yes {
		return nil
	}
	if app.isTerminal == nil || !app.isTerminal() {
		return confirmRequiredError{action: action}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s? [y/N] ", action)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return abortedError{action: action}
	}
}
