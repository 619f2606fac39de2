// Package cmd provides the n2p command tree.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sariola/notion2prompt/internal/errors"
	"github.com/sariola/notion2prompt/internal/ui"
)

// App carries build information and the output streams, so tests can run
// commands against buffers.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	Version   string
	Commit    string
	BuildTime string
}

// NewApp creates an App bound to the process streams.
func NewApp() *App {
	return &App{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Version:   "dev",
		Commit:    "unknown",
		BuildTime: "unknown",
	}
}

// Execute runs the command tree and prints errors centrally, including
// the suggestion when the error carries one.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		term := ui.New(ui.ColorAuto)
		term.Error("%v", err)
		if suggestion := errors.UserSuggestion(err); suggestion != "" {
			fmt.Fprintln(a.Stderr, "\n"+suggestion)
		}
	}
	return err
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.IsValidationError(err) || errors.IsUserError(err):
		return 2
	case errors.IsAuthError(err):
		return 4
	default:
		return 1
	}
}
