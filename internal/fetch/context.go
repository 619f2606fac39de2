package fetch

import (
	"log/slog"

	"github.com/sariola/notion2prompt/internal/id"
)

// MaxDepth is the upper safety bound on recursion depth; requested depths
// are clamped to it at context construction.
const MaxDepth = 50

// Context is the immutable per-branch traversal state. Every operation
// returns a new context; the visited-set shares structure between
// branches, so copies are cheap.
type Context struct {
	visited              *visitedNode
	depthRemaining       int
	itemsRemaining       int
	alwaysFetchDatabases bool
}

// visitedNode is one link of an immutable parent-pointer chain. Lookup
// walks the chain, which is bounded by the recursion depth.
type visitedNode struct {
	id     id.ID
	parent *visitedNode
}

// NewContext creates the root context for a fetch.
func NewContext(maxDepth, maxItems int, alwaysFetchDatabases bool) Context {
	if maxDepth > MaxDepth {
		slog.Warn("requested recursion depth exceeds maximum safe depth, clamping",
			"requested", maxDepth, "max", MaxDepth)
		maxDepth = MaxDepth
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	if maxItems < 0 {
		maxItems = 0
	}
	return Context{
		depthRemaining:       maxDepth,
		itemsRemaining:       maxItems,
		alwaysFetchDatabases: alwaysFetchDatabases,
	}
}

// WithVisited returns a new context with the ID marked as visited on this
// branch.
func (c Context) WithVisited(objID id.ID) Context {
	c.visited = &visitedNode{id: objID, parent: c.visited}
	return c
}

// WithDecrementedDepth returns a new context one level deeper.
func (c Context) WithDecrementedDepth() Context {
	if c.depthRemaining > 0 {
		c.depthRemaining--
	}
	return c
}

// WithItemsUsed returns a new context with n items consumed from the
// budget, saturating at zero.
func (c Context) WithItemsUsed(n int) Context {
	if n > c.itemsRemaining {
		c.itemsRemaining = 0
	} else {
		c.itemsRemaining -= n
	}
	return c
}

// Visited reports whether the ID was already entered on this branch.
func (c Context) Visited(objID id.ID) bool {
	for node := c.visited; node != nil; node = node.parent {
		if node.id == objID {
			return true
		}
	}
	return false
}

// ShouldFetch reports whether a follow-up fetch of the ID is permitted:
// not yet visited, depth remaining, and item budget remaining.
func (c Context) ShouldFetch(objID id.ID) bool {
	return !c.Visited(objID) && c.depthRemaining > 0 && c.itemsRemaining > 0
}

// DepthRemaining returns the remaining recursion depth.
func (c Context) DepthRemaining() int { return c.depthRemaining }

// ItemsRemaining returns the remaining item budget.
func (c Context) ItemsRemaining() int { return c.itemsRemaining }

// AlwaysFetchDatabases reports whether child-database fetches proceed even
// at depth zero.
func (c Context) AlwaysFetchDatabases() bool { return c.alwaysFetchDatabases }
