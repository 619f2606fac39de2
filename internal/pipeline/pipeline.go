// Package pipeline orchestrates the three stages of prompt generation:
// fetch the content tree, compose the prompt, and hand the result back to
// the caller for delivery.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/sariola/notion2prompt/internal/cache"
	"github.com/sariola/notion2prompt/internal/config"
	"github.com/sariola/notion2prompt/internal/fetch"
	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
	"github.com/sariola/notion2prompt/internal/notion"
	"github.com/sariola/notion2prompt/internal/render"
)

// Options configure one prompt generation run.
type Options struct {
	// Target is the raw Notion URL or ID.
	Target string
	// Token is the Notion API key.
	Token string

	Depth                int
	Limit                int
	AlwaysFetchDatabases bool
	Concurrency          int

	NoCache  bool
	CacheTTL time.Duration

	Template          string
	Instruction       string
	IncludeProperties bool
}

// Outcome is a completed run.
type Outcome struct {
	Object       model.Object
	Prompt       string
	Warnings     []string
	ItemsFetched int
}

// Run executes fetch and render for the given options. Configuration
// problems (bad key, bad ID) fail fast before any network call.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	if err := config.ValidateAPIKey(opts.Token); err != nil {
		return nil, err
	}
	rootID, err := id.Parse(opts.Target)
	if err != nil {
		return nil, err
	}

	repo := buildRepository(opts)

	fetcher := fetch.New(repo, fetch.Options{
		Depth:                opts.Depth,
		Limit:                opts.Limit,
		AlwaysFetchDatabases: opts.AlwaysFetchDatabases,
		Concurrency:          opts.Concurrency,
		RawInput:             opts.Target,
	})
	result, err := fetcher.FetchRecursive(ctx, rootID)
	if err != nil {
		return nil, err
	}

	prompt, err := render.Prompt(result.Object, render.Options{
		Template:          opts.Template,
		Instruction:       opts.Instruction,
		IncludeProperties: opts.IncludeProperties,
	})
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Object:       result.Object,
		Prompt:       prompt,
		Warnings:     result.Warnings,
		ItemsFetched: result.ItemsFetched,
	}, nil
}

// buildRepository wires the cache layer over the live client unless
// caching is off. A broken cache never blocks a fetch: construction
// failures fall back to the live client.
func buildRepository(opts Options) notion.Repository {
	client := notion.NewClient(opts.Token)
	if opts.NoCache {
		slog.Info("cache disabled, all requests go to the Notion API")
		return client
	}

	disk, err := cache.New("", opts.CacheTTL)
	if err != nil {
		slog.Warn("cache unavailable, continuing without it", "error", err)
		return client
	}
	slog.Info("cache enabled", "ttl", opts.CacheTTL)
	return cache.Wrap(client, disk)
}
