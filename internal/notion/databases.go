package notion

import (
	"context"
	"fmt"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
)

// RetrieveDatabase retrieves a database's schema and metadata by ID.
// See: https://developers.notion.com/reference/retrieve-a-database
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID id.ID) (*model.Database, error) {
	body, err := c.getRaw(ctx, "/databases/"+databaseID.Dashed())
	if err != nil {
		return nil, err
	}
	return model.ParseDatabase(body)
}

// QueryRows lists the pages of a database, driving pagination to
// completion and sorting newest-first by the first date-like property.
// See: https://developers.notion.com/reference/post-database-query
func (c *Client) QueryRows(ctx context.Context, databaseID id.ID) ([]*model.Page, error) {
	pages, _, err := CollectRowPages(ctx, c.RowsPageFetcher(databaseID))
	if err != nil {
		return nil, err
	}
	SortPagesByDateDesc(pages)
	return pages, nil
}

// RowsPageFetcher returns a FetchPageFunc for one page of a database
// query. Exported so the cache wrapper can drive the same exchange while
// keeping the raw bodies.
func (c *Client) RowsPageFetcher(databaseID id.ID) FetchPageFunc {
	path := fmt.Sprintf("/databases/%s/query", databaseID.Dashed())
	return func(ctx context.Context, cursor string) ([]byte, error) {
		query := map[string]any{"page_size": PageSize}
		if cursor != "" {
			query["start_cursor"] = cursor
		}
		return c.postRaw(ctx, path, query)
	}
}
