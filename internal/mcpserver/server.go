// Package mcpserver exposes prompt generation as an MCP tool over stdio,
// so agent runtimes can call the fetch-and-render pipeline directly.
package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sariola/notion2prompt/internal/auth"
	"github.com/sariola/notion2prompt/internal/config"
	"github.com/sariola/notion2prompt/internal/pipeline"
	"github.com/sariola/notion2prompt/internal/render"
)

// Serve runs the stdio MCP server until the client disconnects.
func Serve(version string) error {
	s := server.NewMCPServer("notion2prompt", version)

	tool := mcp.NewTool("notion_to_prompt",
		mcp.WithDescription("Convert a Notion page, database, or block into a single LLM-ready prompt. Traverses the content recursively, embedding child databases as tables."),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Notion URL or ID of the page/database/block to convert"),
		),
		mcp.WithNumber("depth",
			mcp.Description("Maximum recursion depth (default 5)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of items to fetch (default 1000)"),
		),
		mcp.WithBoolean("always_fetch_databases",
			mcp.Description("Fetch child databases even past the depth limit"),
		),
		mcp.WithString("instruction",
			mcp.Description("Optional instruction text to include in the prompt"),
		),
	)

	s.AddTool(tool, handleNotionToPrompt)

	return server.ServeStdio(s)
}

func handleNotionToPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	token, err := auth.Token()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := pipeline.Run(ctx, pipeline.Options{
		Target:               target,
		Token:                token,
		Depth:                req.GetInt("depth", config.DefaultDepth),
		Limit:                req.GetInt("limit", config.DefaultLimit),
		AlwaysFetchDatabases: req.GetBool("always_fetch_databases", false),
		Instruction:          req.GetString("instruction", ""),
		CacheTTL:             time.Duration(config.DefaultCacheTTL) * time.Second,
		Template:             render.TemplateClaudeXML,
		IncludeProperties:    true,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(outcome.Prompt), nil
}
