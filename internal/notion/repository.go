package notion

import (
	"context"
	"fmt"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
)

// Repository is the five-operation contract the fetch core runs on.
// Business logic depends on this interface, never on HTTP details; the
// live Client and the disk-cache wrapper both implement it.
type Repository interface {
	// RetrievePage fetches page metadata and properties, no block content.
	RetrievePage(ctx context.Context, pageID id.ID) (*model.Page, error)
	// RetrieveDatabase fetches database schema and metadata, no rows.
	RetrieveDatabase(ctx context.Context, databaseID id.ID) (*model.Database, error)
	// RetrieveBlock fetches a single block's content, no children.
	RetrieveBlock(ctx context.Context, blockID id.ID) (model.Block, error)
	// RetrieveChildren lists the direct child blocks of a page or block,
	// driving pagination to completion.
	RetrieveChildren(ctx context.Context, parentID id.ID) ([]model.Block, error)
	// QueryRows lists the pages belonging to a database, driving
	// pagination to completion, sorted newest-first by the first
	// date-like property.
	QueryRows(ctx context.Context, databaseID id.ID) ([]*model.Page, error)
}

// ResolveObject resolves an ID of unknown type by trying page, then
// database, then block.
func ResolveObject(ctx context.Context, repo Repository, objectID id.ID) (model.Object, error) {
	if page, err := repo.RetrievePage(ctx, objectID); err == nil {
		return page, nil
	}

	if db, err := repo.RetrieveDatabase(ctx, objectID); err == nil {
		return db, nil
	}

	block, err := repo.RetrieveBlock(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("could not determine type for ID %s (object not found or access denied): %w", objectID, err)
	}
	return block.(model.Object), nil
}
