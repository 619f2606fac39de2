package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sariola/notion2prompt/internal/auth"
	"github.com/sariola/notion2prompt/internal/config"
	"github.com/sariola/notion2prompt/internal/ui"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Notion API key",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var tokenFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the Notion API key in the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(tokenFlag)
			if token == "" {
				var err error
				token, err = promptForToken(cmd)
				if err != nil {
					return err
				}
			}

			if err := config.ValidateAPIKey(token); err != nil {
				return err
			}
			if err := auth.SaveToken(token); err != nil {
				return err
			}
			ui.FromContext(cmd.Context()).Success("API key saved to keyring")
			return nil
		},
	}

	cmd.Flags().StringVar(&tokenFlag, "token", "", "API key (prompted for when omitted)")
	return cmd
}

// promptForToken reads the key without echo when stdin is a terminal.
func promptForToken(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Notion API key: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the API key is resolved from",
		RunE: func(cmd *cobra.Command, args []string) error {
			term := ui.FromContext(cmd.Context())
			source := auth.Source()
			if source == "none" {
				term.Warning("No API key configured")
				fmt.Fprintln(cmd.ErrOrStderr(), "Run 'n2p auth login' or set NOTION_API_KEY")
				return nil
			}
			term.Success("API key available (source: %s)", source)
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the API key from the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.DeleteToken(); err != nil {
				return err
			}
			ui.FromContext(cmd.Context()).Success("API key removed from keyring")
			return nil
		},
	}
}
