package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sariola/notion2prompt/internal/auth"
	"github.com/sariola/notion2prompt/internal/config"
	"github.com/sariola/notion2prompt/internal/logging"
	"github.com/sariola/notion2prompt/internal/output"
	"github.com/sariola/notion2prompt/internal/pipeline"
	"github.com/sariola/notion2prompt/internal/ui"
)

// generateFlags holds the root command's prompt-generation options.
type generateFlags struct {
	depth                int
	limit                int
	alwaysFetchDatabases bool
	concurrency          int

	noCache  bool
	cacheTTL int

	template    string
	instruction string
	properties  bool

	outputFile string
	pipe       bool
	clipboard  bool

	format   string
	jqQuery  string
	jsonPath string
}

func newRootCmd(app *App) *cobra.Command {
	var (
		debugMode bool
		colorMode string
		flags     generateFlags
	)

	rootCmd := &cobra.Command{
		Use:   "n2p <notion-url-or-id>",
		Short: "Convert Notion content into an LLM-ready prompt",
		Long: `n2p fetches a Notion page, database, or block recursively and renders
it as a single prompt: markdown content with child databases embedded as
tables, wrapped in a template.

Examples:
  n2p https://www.notion.so/My-Page-1234567890abcdef1234567890abcdef
  n2p 1234567890abcdef1234567890abcdef --depth 3 -o prompt.txt
  n2p <url> --pipe | llm
  n2p <url> --format json --jq '.blocks[].type'`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(debugMode, app.Stderr)
			auth.LoadDotEnv()

			cmd.SetContext(ui.WithUI(cmd.Context(), newUI(colorMode)))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			applyConfigDefaults(cmd, cfg, &flags)
			return runGenerate(cmd, app, args[0], flags)
		},
	}

	rootCmd.Version = app.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("n2p %s (commit: %s, built: %s)\n",
		app.Version, app.Commit, app.BuildTime))

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color mode: auto|always|never")

	f := rootCmd.Flags()
	f.IntVar(&flags.depth, "depth", config.DefaultDepth, "Maximum recursion depth (clamped to 50)")
	f.IntVar(&flags.limit, "limit", config.DefaultLimit, "Maximum number of items to fetch")
	f.BoolVar(&flags.alwaysFetchDatabases, "always-fetch-databases", false,
		"Fetch child databases even past the depth limit")
	f.IntVar(&flags.concurrency, "concurrency", 0, "Number of fetch workers (0 = auto, max 32)")

	f.BoolVar(&flags.noCache, "no-cache", false, "Disable response caching")
	f.IntVar(&flags.cacheTTL, "cache-ttl", config.DefaultCacheTTL, "Cache TTL in seconds")

	f.StringVar(&flags.template, "template", config.DefaultTemplate, "Prompt template: claude-xml|default")
	f.StringVar(&flags.instruction, "instruction", "", "Instruction text to include in the prompt")
	f.BoolVar(&flags.properties, "properties", true, "Include the page properties section")

	f.StringVarP(&flags.outputFile, "output", "o", "", "Write the prompt to a file")
	f.BoolVarP(&flags.pipe, "pipe", "p", false, "Write the prompt to stdout only")
	f.BoolVarP(&flags.clipboard, "clipboard", "b", false, "Copy the prompt to the clipboard (OSC52)")

	f.StringVar(&flags.format, "format", "text", "Output format: text|json")
	f.StringVar(&flags.jqQuery, "jq", "", "Filter json output with a jq program")
	f.StringVar(&flags.jsonPath, "jsonpath", "", "Filter json output with a JSONPath expression")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newMCPCmd(app))

	return rootCmd
}

func newUI(colorMode string) *ui.UI {
	switch colorMode {
	case "always":
		return ui.New(ui.ColorAlways)
	case "never":
		return ui.New(ui.ColorNever)
	default:
		return ui.New(ui.ColorAuto)
	}
}

// applyConfigDefaults fills in file-configured values for flags the user
// did not set on the command line.
func applyConfigDefaults(cmd *cobra.Command, cfg *config.Config, flags *generateFlags) {
	if !cmd.Flags().Changed("depth") && cfg.Depth != nil {
		flags.depth = *cfg.Depth
	}
	if !cmd.Flags().Changed("limit") && cfg.Limit != nil {
		flags.limit = *cfg.Limit
	}
	if !cmd.Flags().Changed("cache-ttl") && cfg.CacheTTL != nil {
		flags.cacheTTL = *cfg.CacheTTL
	}
	if !cmd.Flags().Changed("no-cache") && cfg.NoCache != nil {
		flags.noCache = *cfg.NoCache
	}
	if !cmd.Flags().Changed("concurrency") && cfg.Concurrency != nil {
		flags.concurrency = *cfg.Concurrency
	}
	if !cmd.Flags().Changed("template") && cfg.Template != "" {
		flags.template = cfg.Template
	}
}

func runGenerate(cmd *cobra.Command, app *App, target string, flags generateFlags) error {
	ctx := cmd.Context()
	term := ui.FromContext(ctx)

	token, err := auth.Token()
	if err != nil {
		return err
	}

	outcome, err := pipeline.Run(ctx, pipeline.Options{
		Target:               target,
		Token:                token,
		Depth:                flags.depth,
		Limit:                flags.limit,
		AlwaysFetchDatabases: flags.alwaysFetchDatabases,
		Concurrency:          flags.concurrency,
		NoCache:              flags.noCache,
		CacheTTL:             time.Duration(flags.cacheTTL) * time.Second,
		Template:             flags.template,
		Instruction:          flags.instruction,
		IncludeProperties:    flags.properties,
	})
	if err != nil {
		return err
	}

	for _, warning := range outcome.Warnings {
		term.Warning("%s", warning)
	}

	if flags.format == "json" {
		return output.WriteJSON(app.Stdout, outcome.Object, flags.jqQuery, flags.jsonPath)
	}

	return deliverPrompt(app, term, outcome, flags)
}

// deliverPrompt plans text delivery: pipe mode goes to stdout only;
// otherwise file and clipboard targets apply, defaulting to stdout when
// neither is requested.
func deliverPrompt(app *App, term *ui.UI, outcome *pipeline.Outcome, flags generateFlags) error {
	plan := output.NewPlan()
	switch {
	case flags.pipe:
		plan.WithStdout()
	default:
		if flags.outputFile != "" {
			plan.WithFile(flags.outputFile)
		}
		if flags.clipboard && stdoutIsTerminal() {
			plan.WithClipboard()
		}
		if plan.Empty() {
			plan.WithStdout()
		}
	}

	report := output.Deliver(plan, outcome.Prompt, app.Stdout, term)
	if !flags.pipe {
		output.WriteFileReport(report, term)
		term.Info("Fetched %d objects from Notion", outcome.ItemsFetched)
	}
	if !report.Success() {
		return fmt.Errorf("delivery failed: %v", report.Errors())
	}
	return nil
}

// stdoutIsTerminal is swappable for tests.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
