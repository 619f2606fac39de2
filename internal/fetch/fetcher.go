// Package fetch is the recursive, concurrent content-acquisition core: a
// work-stealing, prioritized exploration engine that schedules
// heterogeneous fetch steps against the repository, enforces depth, item,
// and cycle limits, and classifies failure modes.
package fetch

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sariola/notion2prompt/internal/graph"
	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
	"github.com/sariola/notion2prompt/internal/notion"
)

const (
	minWorkers = 4
	maxWorkers = 24
	// hardWorkerCap bounds the worker count regardless of configuration.
	hardWorkerCap = 32

	starvationSleep  = 10 * time.Millisecond
	maxEmptyAttempts = 10
)

// Options configure one recursive fetch.
type Options struct {
	// Depth is the maximum recursion depth; clamped to MaxDepth.
	Depth int
	// Limit is the maximum number of items to fetch.
	Limit int
	// AlwaysFetchDatabases forces child-database fetches at depth zero.
	AlwaysFetchDatabases bool
	// Concurrency overrides the worker count when positive.
	Concurrency int
	// RawInput is the original URL or ID string, preserved for type-hint
	// detection.
	RawInput string
}

// Result is a completed fetch: the assembled tree plus warnings collected
// along the way.
type Result struct {
	Object       model.Object
	Warnings     []string
	ItemsFetched int
}

// Fetcher runs recursive fetches over a repository using parallel
// work-stealing workers.
type Fetcher struct {
	repo       notion.Repository
	opts       Options
	numWorkers int
}

// New creates a fetcher. The default worker count is the CPU count
// clamped to [4, 24]; workers are I/O-bound tasks, so running more than
// the core count is safe and buys throughput up to the API's rate limit.
func New(repo notion.Repository, opts Options) *Fetcher {
	workers := opts.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < minWorkers {
			workers = minWorkers
		}
		if workers > maxWorkers {
			workers = maxWorkers
		}
	}
	if workers > hardWorkerCap {
		workers = hardWorkerCap
	}
	return &Fetcher{repo: repo, opts: opts, numWorkers: workers}
}

// FetchRecursive fetches the object graph reachable from rootID and
// assembles it into a single tree. Either a fully assembled tree or an
// error is returned; there is no partial result.
func (f *Fetcher) FetchRecursive(ctx context.Context, rootID id.ID) (*Result, error) {
	queue := NewQueue(f.numWorkers)
	initial := NewContext(f.opts.Depth, f.opts.Limit, f.opts.AlwaysFetchDatabases)

	slog.Info("starting recursive fetch",
		"id", rootID,
		"depth", f.opts.Depth,
		"limit", f.opts.Limit,
		"always_fetch_databases", f.opts.AlwaysFetchDatabases,
		"workers", f.numWorkers)

	hint := id.HintFromInput(f.opts.RawInput)
	queue.Enqueue(IdentifyAndExplore{
		ID:        rootID,
		Objective: Objective{Kind: ExploreRecursively, TypeHint: hint},
		Ctx:       initial,
	})

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < f.numWorkers; i++ {
		local := queue.Worker(i)
		g.Go(func() error {
			return runExplorationLoop(groupCtx, local, &explorationWorker{repo: f.repo}, queue)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assembleResults(queue.Results(), rootID)
}

// runExplorationLoop is one worker's dequeue-then-execute loop. Workers
// that observe an empty queue sleep briefly and re-check the completion
// counter; after several consecutive empty attempts with no pending work
// they exit.
func runExplorationLoop(ctx context.Context, local *WorkerQueue, worker *explorationWorker, queue *Queue) error {
	emptyAttempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		step, ok := local.Dequeue()
		if !ok {
			emptyAttempts++
			if emptyAttempts >= maxEmptyAttempts {
				if !queue.HasPendingWork() {
					return nil
				}
				emptyAttempts = 0
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(starvationSleep):
			}
			continue
		}
		emptyAttempts = 0

		outcome, followUps := worker.executeStep(ctx, step)

		// Follow-ups are enqueued before the completion mark so the
		// counter never reads zero while successors are still unqueued.
		queue.EnqueueAll(followUps)

		switch outcome.Kind {
		case OutcomeSkipped:
			slog.Debug("step skipped", "reason", outcome.SkipMessage())
		case OutcomeFailed:
			slog.Warn("step failed", "error", outcome.Err)
		}

		queue.StoreResult(outcome)
		queue.MarkCompleted()
	}
}

// assembleResults folds step outcomes into a fresh graph in one pass and
// assembles the tree under the root ID.
func assembleResults(outcomes []Outcome, rootID id.ID) (*Result, error) {
	g := graph.New()
	result := &Result{}

	for _, outcome := range outcomes {
		switch outcome.Kind {
		case OutcomeSuccess:
			registerContent(g, outcome.Content, result)
			result.Warnings = append(result.Warnings, outcome.Warnings...)
		case OutcomeSkipped:
			slog.Debug("skipped step during assembly", "reason", outcome.SkipMessage())
			if outcome.Skip == SkipItemLimitReached {
				result.Warnings = append(result.Warnings, outcome.SkipMessage())
			}
		case OutcomeFailed:
			result.Warnings = append(result.Warnings, outcome.Err.Error())
		}
	}

	slog.Debug("folding complete",
		"databases", g.DatabaseCount(),
		"mappings", g.MappingCount())

	root, err := g.Assemble(rootID)
	if err != nil {
		return nil, err
	}

	slog.Info("fetch complete, object tree assembled", "root", rootID)
	result.Object = root
	return result, nil
}

func registerContent(g *graph.Graph, content *Discovered, result *Result) {
	switch content.Kind {
	case DiscoveredObject:
		result.ItemsFetched++
		g.WithObjectFromSource(content.Object, content.SourceBlockID)
	case DiscoveredBlocks:
		result.ItemsFetched += len(content.Blocks)
		g.WithBlocks(content.ParentID, content.Blocks)
	case DiscoveredRows:
		result.ItemsFetched += len(content.Rows)
		g.WithRows(content.DatabaseID, content.Rows)
	}
}
