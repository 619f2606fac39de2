package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
	"github.com/sariola/notion2prompt/internal/notion"
)

// explorationWorker executes single exploration steps against the
// repository and plans follow-up work.
type explorationWorker struct {
	repo notion.Repository
}

// executeStep runs one step, returning its outcome and any follow-up
// steps to enqueue.
func (w *explorationWorker) executeStep(ctx context.Context, step Step) (Outcome, []Step) {
	switch s := step.(type) {
	case IdentifyAndExplore:
		return w.identifyAndExplore(ctx, s)
	case RetrieveChildren:
		return w.retrieveChildren(ctx, s)
	case FollowReferences:
		return w.followReferences(s)
	case CollectRows:
		return w.collectRows(ctx, s)
	default:
		return failed(Context{}, fmt.Errorf("unknown step type %T", step)), nil
	}
}

// identifyAndExplore resolves an ID to an object and plans follow-ups
// based on the objective and the resolved type.
func (w *explorationWorker) identifyAndExplore(ctx context.Context, step IdentifyAndExplore) (Outcome, []Step) {
	switch {
	case step.Ctx.Visited(step.ID):
		return skipped(step.Ctx, SkipAlreadyVisited, step.ID), nil
	case step.Ctx.ItemsRemaining() <= 0:
		return skipped(step.Ctx, SkipItemLimitReached, step.ID), nil
	}

	branch := step.Ctx.WithVisited(step.ID)

	obj, err := w.resolveByObjective(ctx, step.ID, step.Objective)
	if err != nil {
		return failed(branch, err), nil
	}

	var sourceBlockID id.ID
	if step.Objective.Kind == ResolveChildDatabase {
		sourceBlockID = step.Objective.SourceBlockID
	}

	var followUps []Step
	switch v := obj.(type) {
	case *model.Page:
		slog.Debug("fetched page", "title", v.Title, "id", v.ID)
		// always_fetch_databases needs the children listed even at depth
		// zero, or the child-database blocks would never be discovered.
		if branch.DepthRemaining() > 0 || branch.AlwaysFetchDatabases() {
			followUps = append(followUps, RetrieveChildren{ParentID: v.ID, Ctx: branch})
		}
	case *model.Database:
		slog.Debug("fetched database", "title", v.PlainTitle(), "id", v.ID,
			"properties", len(v.Properties), "rows", len(v.Pages))
		switch step.Objective.Kind {
		case ResolveChildDatabase:
			// Rows may already be present from the linked-database query
			// fallback; collecting again would duplicate them.
			if len(v.Pages) == 0 && branch.DepthRemaining() > 0 {
				followUps = append(followUps, CollectRows{DatabaseID: v.ID, Ctx: branch})
			}
		default:
			if branch.DepthRemaining() > 0 {
				followUps = append(followUps, CollectRows{DatabaseID: v.ID, Ctx: branch})
			}
		}
	case model.Block:
		common := v.Common()
		slog.Debug("fetched block", "type", common.Type, "id", common.ID)
		if branch.DepthRemaining() > 0 && common.HasChildren {
			followUps = append(followUps, FollowReferences{Block: v, Ctx: branch})
		}
	}

	return success(branch, &Discovered{
		Kind:          DiscoveredObject,
		Object:        obj,
		SourceBlockID: sourceBlockID,
	}), followUps
}

// retrieveChildren lists a parent's child blocks and plans deeper
// exploration for child databases and enrichable blocks.
func (w *explorationWorker) retrieveChildren(ctx context.Context, step RetrieveChildren) (Outcome, []Step) {
	blocks, err := w.repo.RetrieveChildren(ctx, step.ParentID)
	if err != nil {
		slog.Warn("failed to fetch blocks", "parent", step.ParentID, "error", err)
		return failed(step.Ctx, err), nil
	}
	slog.Debug("fetched blocks", "count", len(blocks), "parent", step.ParentID)

	followUps := planDeeperExploration(blocks, step.Ctx)

	return success(step.Ctx, &Discovered{
		Kind:     DiscoveredBlocks,
		ParentID: step.ParentID,
		Blocks:   blocks,
	}), followUps
}

// planDeeperExploration decides, per retrieved block, whether to queue a
// database resolution or a reference-following pass.
func planDeeperExploration(blocks []model.Block, ctx Context) []Step {
	var work []Step
	for _, block := range blocks {
		if cdb, ok := block.(*model.ChildDatabaseBlock); ok {
			if ctx.AlwaysFetchDatabases() || ctx.DepthRemaining() > 0 {
				work = append(work, IdentifyAndExplore{
					ID: cdb.ID,
					Objective: Objective{
						Kind:          ResolveChildDatabase,
						SourceBlockID: cdb.ID,
					},
					Ctx: ctx.WithDecrementedDepth(),
				})
			} else {
				slog.Warn("skipping database fetch, depth exhausted",
					"title", cdb.Title, "id", cdb.ID)
			}
			continue
		}

		common := block.Common()
		if ctx.DepthRemaining() > 0 && (common.HasChildren || model.Linkable(block)) {
			work = append(work, FollowReferences{Block: block, Ctx: ctx.WithDecrementedDepth()})
		}
	}
	return work
}

// followReferences extracts cross-references from a block and queues an
// exploration for each one. Already-visited targets are still enqueued so
// the skip is recorded as an outcome rather than silently dropped.
func (w *explorationWorker) followReferences(step FollowReferences) (Outcome, []Step) {
	var followUps []Step

	if step.Ctx.DepthRemaining() > 0 {
		for _, ref := range model.References(step.Block) {
			followUps = append(followUps, IdentifyAndExplore{
				ID:        ref.ID,
				Objective: Objective{Kind: ExploreRecursively, TypeHint: id.HintUnknown},
				Ctx:       step.Ctx.WithDecrementedDepth(),
			})
		}

		common := step.Block.Common()
		if common.HasChildren {
			followUps = append(followUps, RetrieveChildren{
				ParentID: common.ID,
				Ctx:      step.Ctx.WithDecrementedDepth(),
			})
		}
	}

	// The block itself was already registered when its parent's children
	// were processed; re-registering is a same-value replacement.
	return success(step.Ctx, &Discovered{
		Kind:   DiscoveredObject,
		Object: step.Block.(model.Object),
	}), followUps
}

// collectRows queries a database's pages, honoring the item budget.
func (w *explorationWorker) collectRows(ctx context.Context, step CollectRows) (Outcome, []Step) {
	if step.Ctx.ItemsRemaining() <= 0 {
		return skipped(step.Ctx, SkipItemLimitReached, step.DatabaseID), nil
	}

	rows, err := w.repo.QueryRows(ctx, step.DatabaseID)
	if err != nil {
		slog.Warn("failed to query database", "database", step.DatabaseID, "error", err)
		return failed(step.Ctx, err), nil
	}
	slog.Debug("queried database", "database", step.DatabaseID, "rows", len(rows))

	var warnings []string
	if len(rows) > step.Ctx.ItemsRemaining() {
		rows = rows[:step.Ctx.ItemsRemaining()]
		warnings = append(warnings, "item limit reached")
	}

	return success(step.Ctx.WithItemsUsed(len(rows)), &Discovered{
		Kind:       DiscoveredRows,
		DatabaseID: step.DatabaseID,
		Rows:       rows,
	}, warnings...), nil
}

// resolveByObjective resolves an object using the strategy the objective
// calls for. Child databases try the database endpoint first; on failure
// the error is classified and a fallback chain runs: query the rows
// anyway (the query endpoint sometimes resolves linked databases), retry
// against an extracted source database ID, and finally retrieve the block
// form and stamp the classification into its content field.
func (w *explorationWorker) resolveByObjective(ctx context.Context, objID id.ID, objective Objective) (model.Object, error) {
	if objective.Kind == ExploreRecursively {
		if objective.TypeHint == id.HintDatabase {
			slog.Debug("speculative typing: trying database first", "id", objID)
			if db, err := w.repo.RetrieveDatabase(ctx, objID); err == nil {
				return db, nil
			}
		}
		return notion.ResolveObject(ctx, w.repo, objID)
	}

	db, err := w.repo.RetrieveDatabase(ctx, objID)
	if err == nil {
		return db, nil
	}

	failure := classifyDatabaseFailure(err)
	if failure.Kind == FailureLinked {
		if synthesized := w.resolveLinkedDatabase(ctx, objID); synthesized != nil {
			return synthesized, nil
		}
	} else {
		slog.Warn("child database fetch failed", "id", objID, "reason", failure.String())
	}

	block, blockErr := w.repo.RetrieveBlock(ctx, objID)
	if blockErr != nil {
		return nil, fmt.Errorf("could not resolve child database %s: %w", objID, blockErr)
	}
	return stampFailure(block, failure), nil
}

// resolveLinkedDatabase attempts the query_rows fallback for a linked
// database, synthesizing a Database with an inferred schema when rows
// come back. Returns nil when the fallback fails entirely.
func (w *explorationWorker) resolveLinkedDatabase(ctx context.Context, objID id.ID) *model.Database {
	slog.Info("child database is a linked database, attempting row query fallback", "id", objID)

	rows, err := w.repo.QueryRows(ctx, objID)
	if err == nil {
		slog.Info("queried rows from linked database", "id", objID, "rows", len(rows))
		return synthesizeDatabase(objID, rows)
	}

	sourceID, ok := extractSourceDatabaseID(err)
	if !ok {
		slog.Warn("row query failed for linked database", "id", objID, "error", err)
		return nil
	}

	if notion.IsNotFound(err) {
		// The API already resolved the linked view and could not access
		// the source; retrying with the same ID cannot succeed.
		slog.Info("linked database references a source not shared with the integration",
			"id", objID, "source", sourceID)
		return nil
	}

	slog.Info("extracted source database ID from error, retrying row query",
		"id", objID, "source", sourceID)
	rows, err = w.repo.QueryRows(ctx, sourceID)
	if err != nil {
		slog.Warn("retry with source database also failed", "source", sourceID, "error", err)
		return nil
	}
	slog.Info("queried rows from source database", "source", sourceID, "rows", len(rows))
	return synthesizeDatabase(objID, rows)
}

// synthesizeDatabase builds a Database for a linked view from its queried
// rows: the schema is inferred from the property types observed across
// the pages.
func synthesizeDatabase(objID id.ID, rows []*model.Page) *model.Database {
	return &model.Database{
		ID:         objID,
		Pages:      rows,
		Properties: inferSchemaFromPages(rows),
	}
}

// stampFailure rewrites a ChildDatabaseBlock's content to the matching
// failure classification so the renderer can produce a meaningful
// fallback line instead of a silent omission.
func stampFailure(block model.Block, failure DBFetchFailure) model.Object {
	if cdb, ok := block.(*model.ChildDatabaseBlock); ok {
		switch failure.Kind {
		case FailureLinked:
			cdb.Content = model.LinkedContent()
		case FailurePermission:
			cdb.Content = model.InaccessibleContent(failure.Reason)
		case FailureNotFound:
			cdb.Content = model.InaccessibleContent("database not found")
		default:
			cdb.Content = model.InaccessibleContent(failure.Reason)
		}
	}
	return block.(model.Object)
}
