// Package graph accumulates fetched Notion fragments in arbitrary order
// and assembles them into a single parented tree. The assembly story has
// three steps: register objects as they arrive, walk parent→child edges
// from the root, and embed databases into their ChildDatabaseBlock hosts.
//
// The graph is not safe for concurrent use: the fetch driver builds it on
// one goroutine after all workers have exited.
package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
)

// ParentKind says how a database relates to its parent in the tree.
type ParentKind int

const (
	// ParentPageChild marks a database that is a direct child of a page.
	ParentPageChild ParentKind = iota
	// ParentChildDatabaseBlock marks a database referenced by a
	// ChildDatabaseBlock.
	ParentChildDatabaseBlock
	// ParentBlockChild marks a database embedded within another block.
	ParentBlockChild
)

// DatabaseLocation tracks where a database was found in the object tree.
type DatabaseLocation struct {
	Kind     ParentKind
	ParentID id.ID
	Path     []id.ID
}

// Graph is the append-only store of objects and relationships.
type Graph struct {
	objects         map[id.ID]model.Object
	children        map[id.ID][]id.ID
	parents         map[id.ID]id.ID
	dbLocations     map[id.ID]DatabaseLocation
	blockToDatabase map[id.ID]id.ID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		objects:         make(map[id.ID]model.Object),
		children:        make(map[id.ID][]id.ID),
		parents:         make(map[id.ID]id.ID),
		dbLocations:     make(map[id.ID]DatabaseLocation),
		blockToDatabase: make(map[id.ID]id.ID),
	}
}

// AssemblyError is fatal: a missing object or a cycle means no tree can be
// returned.
type AssemblyError struct {
	Root  id.ID
	Cause string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("failed to assemble object tree for root %s: %s", e.Root, e.Cause)
}

// WithObject stores an object. Re-registration under the same ID replaces
// the object entry only; relationships are strictly appended.
func (g *Graph) WithObject(obj model.Object) *Graph {
	return g.WithObjectFromSource(obj, "")
}

// WithObjectFromSource stores an object and, when sourceBlockID is set,
// records that the object (a database) was fetched via that
// ChildDatabaseBlock. This is how the fetch worker communicates "this
// database came from that block".
func (g *Graph) WithObjectFromSource(obj model.Object, sourceBlockID id.ID) *Graph {
	objID := obj.ObjectID()
	slog.Debug("registering object", "type", obj.ObjectType(), "id", objID)

	if db, ok := obj.(*model.Database); ok {
		g.registerDatabaseOrigin(db, sourceBlockID)
	}

	g.objects[objID] = obj
	return g
}

// registerDatabaseOrigin records where a database came from, either via a
// child database block or directly.
func (g *Graph) registerDatabaseOrigin(db *model.Database, sourceBlockID id.ID) {
	dbID := db.ID

	if sourceBlockID != "" {
		slog.Debug("database fetched via child block", "database", dbID, "block", sourceBlockID)
		g.blockToDatabase[sourceBlockID] = dbID
	}

	if loc, ok := g.dbLocations[dbID]; ok {
		if loc.Kind == ParentChildDatabaseBlock {
			g.WithRelationship(loc.ParentID, dbID)
		}
		return
	}
	g.dbLocations[dbID] = DatabaseLocation{Kind: ParentPageChild, ParentID: dbID}
}

// WithRelationship appends a parent→child edge.
func (g *Graph) WithRelationship(parentID, childID id.ID) *Graph {
	g.children[parentID] = append(g.children[parentID], childID)
	g.parents[childID] = parentID
	return g
}

// WithBlocks adds blocks as children of a parent, seeding database
// locations for any ChildDatabaseBlocks found.
func (g *Graph) WithBlocks(parentID id.ID, blocks []model.Block) *Graph {
	slog.Debug("adding blocks", "count", len(blocks), "parent", parentID)

	for _, block := range blocks {
		if cdb, ok := block.(*model.ChildDatabaseBlock); ok {
			g.dbLocations[cdb.ID] = DatabaseLocation{
				Kind:     ParentChildDatabaseBlock,
				ParentID: parentID,
				Path:     []id.ID{parentID},
			}
		}
		g.WithObject(block.(model.Object))
		g.WithRelationship(parentID, block.Common().ID)
	}
	return g
}

// WithRows adds database rows as children of the database.
func (g *Graph) WithRows(databaseID id.ID, pages []*model.Page) *Graph {
	for _, page := range pages {
		g.WithObject(page)
		g.WithRelationship(databaseID, page.ID)
	}
	return g
}

// DatabaseCount returns how many database locations are tracked.
func (g *Graph) DatabaseCount() int { return len(g.dbLocations) }

// MappingCount returns how many block→database mappings are recorded.
func (g *Graph) MappingCount() int { return len(g.blockToDatabase) }

// Assemble walks children edges from the root and returns the assembled
// tree. Fails on missing objects and on cycles; no partial tree is
// returned.
func (g *Graph) Assemble(rootID id.ID) (model.Object, error) {
	obj, err := g.assemble(rootID, nil)
	if err != nil {
		return nil, &AssemblyError{Root: rootID, Cause: err.Error()}
	}
	return obj, nil
}

func (g *Graph) assemble(objID id.ID, stack []id.ID) (model.Object, error) {
	for _, onStack := range stack {
		if onStack == objID {
			return nil, fmt.Errorf("cycle detected at ID %s", objID)
		}
	}

	obj, ok := g.objects[objID]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", objID)
	}

	childIDs := g.children[objID]
	if len(childIDs) == 0 {
		return obj, nil
	}

	stack = append(stack, objID)
	children := make([]model.Object, 0, len(childIDs))
	for _, childID := range childIDs {
		child, err := g.assemble(childID, stack)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	g.attachChildren(obj, children)
	return obj, nil
}

// attachChildren wires assembled children into their parent, keyed on the
// parent's variant.
func (g *Graph) attachChildren(parent model.Object, children []model.Object) {
	switch p := parent.(type) {
	case *model.Page:
		blocks, databases := g.partitionByKind(children)
		slog.Debug("attaching page children",
			"page", p.ID, "blocks", len(blocks), "databases", len(databases))
		p.Blocks = g.embedDatabases(blocks, databases)
	case *model.Database:
		rows := extractPages(children)
		if len(rows) > 0 {
			p.Pages = rows
		}
	case model.Block:
		blocks, databases := g.partitionByKind(children)
		if len(blocks) > 0 || len(databases) > 0 {
			enriched := g.embedDatabases(blocks, databases)
			if len(enriched) > 0 {
				p.Common().Children = enriched
			}
		}
	}
}

// partitionByKind splits mixed children into blocks and embeddable
// databases. A database with no ChildDatabaseBlock among the blocks gets
// one recreated from its title and ID (a later fetch can overwrite the
// earlier block entry in the object store; the mapping survives).
func (g *Graph) partitionByKind(children []model.Object) ([]model.Block, map[id.ID]*model.Database) {
	var blocks []model.Block
	databases := make(map[id.ID]*model.Database)

	for _, child := range children {
		switch c := child.(type) {
		case *model.Database:
			if !g.isEmbeddable(c.ID) {
				slog.Warn("direct database child not embeddable, no matching child database block",
					"database", c.PlainTitle())
				continue
			}
			if !hasChildDatabaseBlock(blocks, c.ID) {
				blocks = append(blocks, g.recreateChildDatabaseBlock(c))
			}
			databases[c.ID] = c
		case model.Block:
			blocks = append(blocks, c)
		}
	}

	return blocks, databases
}

func (g *Graph) isEmbeddable(dbID id.ID) bool {
	for _, mapped := range g.blockToDatabase {
		if mapped == dbID {
			return true
		}
	}
	return false
}

func hasChildDatabaseBlock(blocks []model.Block, dbID id.ID) bool {
	for _, b := range blocks {
		if cdb, ok := b.(*model.ChildDatabaseBlock); ok && cdb.ID == dbID {
			return true
		}
	}
	return false
}

// recreateChildDatabaseBlock synthesizes a host block for a database whose
// original ChildDatabaseBlock entry was replaced in the object store.
func (g *Graph) recreateChildDatabaseBlock(db *model.Database) *model.ChildDatabaseBlock {
	blockID := db.ID
	for mappedBlock, mappedDB := range g.blockToDatabase {
		if mappedDB == db.ID {
			blockID = mappedBlock
			break
		}
	}

	return &model.ChildDatabaseBlock{
		BlockCommon: model.BlockCommon{ID: blockID, Type: "child_database"},
		Title:       db.PlainTitle(),
	}
}

// embedDatabases moves each database into the content field of its host
// ChildDatabaseBlock, recursing through nested children. Databases left
// over after embedding are warned about, never dropped silently.
func (g *Graph) embedDatabases(blocks []model.Block, databases map[id.ID]*model.Database) []model.Block {
	for _, block := range blocks {
		g.embedIfHost(block, databases)
	}

	if len(databases) > 0 {
		leftover := make([]string, 0, len(databases))
		for dbID := range databases {
			leftover = append(leftover, string(dbID))
		}
		sort.Strings(leftover)
		slog.Warn("unmatched databases after embedding", "ids", strings.Join(leftover, ", "))
	}

	return blocks
}

func (g *Graph) embedIfHost(block model.Block, databases map[id.ID]*model.Database) {
	if cdb, ok := block.(*model.ChildDatabaseBlock); ok {
		dbID := cdb.ID
		if mapped, ok := g.blockToDatabase[cdb.ID]; ok {
			dbID = mapped
		}
		if db, ok := databases[dbID]; ok {
			slog.Debug("embedded database into block", "database", db.PlainTitle(), "block", cdb.ID)
			cdb.Content = model.FetchedContent(db)
			delete(databases, dbID)
		}
	}

	for _, child := range block.Common().Children {
		g.embedIfHost(child, databases)
	}
}

func extractPages(objects []model.Object) []*model.Page {
	var pages []*model.Page
	for _, obj := range objects {
		if page, ok := obj.(*model.Page); ok {
			pages = append(pages, page)
		}
	}
	return pages
}
