package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sariola/notion2prompt/internal/mcpserver"
)

func newMCPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP stdio server exposing the notion_to_prompt tool",
		Long: `Runs a Model Context Protocol server over stdio. The server exposes a
single tool, notion_to_prompt, that fetches a Notion object tree and
returns the rendered prompt. Configure it in an MCP client as:

  {"command": "n2p", "args": ["mcp"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mcpserver.Serve(app.Version)
		},
	}
}
