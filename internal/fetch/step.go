package fetch

import (
	"fmt"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
)

// Priority orders work items in the queue. Higher values run first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// ObjectiveKind is the strategic purpose of an identify step.
type ObjectiveKind int

const (
	// ExploreRecursively fetches an object and explores its children.
	ExploreRecursively ObjectiveKind = iota
	// ResolveChildDatabase fetches a database referenced by a
	// ChildDatabaseBlock and queries its rows.
	ResolveChildDatabase
)

// Objective carries the purpose of an identify step through the queue.
type Objective struct {
	Kind ObjectiveKind
	// TypeHint steers endpoint order for ExploreRecursively.
	TypeHint id.TypeHint
	// SourceBlockID is the ChildDatabaseBlock that referenced the database
	// for ResolveChildDatabase.
	SourceBlockID id.ID
}

// Step is one unit of exploration work.
type Step interface {
	Priority() Priority
}

// IdentifyAndExplore resolves an ID to a page, database, or block, then
// plans follow-up work based on the objective.
type IdentifyAndExplore struct {
	ID        id.ID
	Objective Objective
	Ctx       Context
}

// Priority is critical for child-database resolution, the rate-limiting
// step of the traversal; late binding there causes embedding failures.
func (s IdentifyAndExplore) Priority() Priority {
	if s.Objective.Kind == ResolveChildDatabase {
		return PriorityCritical
	}
	return PriorityNormal
}

// RetrieveChildren lists the direct child blocks of a parent.
type RetrieveChildren struct {
	ParentID id.ID
	Ctx      Context
}

func (s RetrieveChildren) Priority() Priority { return PriorityNormal }

// FollowReferences chases cross-references discovered in a block.
type FollowReferences struct {
	Block model.Block
	Ctx   Context
}

// Priority is low: reference-chasing yields the shallowest new information.
func (s FollowReferences) Priority() Priority { return PriorityLow }

// CollectRows queries the pages of a database.
type CollectRows struct {
	DatabaseID id.ID
	Ctx        Context
}

// Priority is high: database queries have large fan-out and should start
// early.
func (s CollectRows) Priority() Priority { return PriorityHigh }

// SkipReason says why a step was skipped without being an error.
type SkipReason int

const (
	SkipAlreadyVisited SkipReason = iota
	SkipDepthExhausted
	SkipItemLimitReached
)

func (r SkipReason) String() string {
	switch r {
	case SkipAlreadyVisited:
		return "already visited"
	case SkipDepthExhausted:
		return "maximum recursion depth reached"
	default:
		return "item limit reached"
	}
}

// OutcomeKind classifies the result of one step.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeSkipped
	OutcomeFailed
)

// DiscoveredKind says what a successful step produced.
type DiscoveredKind int

const (
	DiscoveredObject DiscoveredKind = iota
	DiscoveredBlocks
	DiscoveredRows
)

// Discovered is the content a successful step found.
type Discovered struct {
	Kind DiscoveredKind

	// Object discoveries.
	Object model.Object
	// SourceBlockID is set when a database was fetched via a
	// ChildDatabaseBlock.
	SourceBlockID id.ID

	// Block discoveries.
	ParentID id.ID
	Blocks   []model.Block

	// Row discoveries.
	DatabaseID id.ID
	Rows       []*model.Page
}

// Outcome is the result of processing one step.
type Outcome struct {
	Kind OutcomeKind
	Ctx  Context

	// Success.
	Content  *Discovered
	Warnings []string

	// Skipped.
	Skip   SkipReason
	SkipID id.ID

	// Failed.
	Err error
}

func skipped(ctx Context, reason SkipReason, skipID id.ID) Outcome {
	return Outcome{Kind: OutcomeSkipped, Ctx: ctx, Skip: reason, SkipID: skipID}
}

func failed(ctx Context, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Ctx: ctx, Err: err}
}

func success(ctx Context, content *Discovered, warnings ...string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Ctx: ctx, Content: content, Warnings: warnings}
}

// SkipMessage renders a skipped outcome for logs and warnings.
func (o Outcome) SkipMessage() string {
	if o.Skip == SkipAlreadyVisited {
		return fmt.Sprintf("ID %s %s", o.SkipID, o.Skip)
	}
	return o.Skip.String()
}
