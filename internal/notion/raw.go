package notion

import (
	"context"

	"github.com/sariola/notion2prompt/internal/id"
)

// The raw accessors return the unparsed response body of a single
// retrieval. The cache wrapper stores these bodies verbatim and re-parses
// them through the same parsers used live, so the domain model is never
// serialized directly.

// PageRaw fetches a page's raw response body.
func (c *Client) PageRaw(ctx context.Context, pageID id.ID) ([]byte, error) {
	return c.getRaw(ctx, "/pages/"+pageID.Dashed())
}

// DatabaseRaw fetches a database's raw response body.
func (c *Client) DatabaseRaw(ctx context.Context, databaseID id.ID) ([]byte, error) {
	return c.getRaw(ctx, "/databases/"+databaseID.Dashed())
}

// BlockRaw fetches a block's raw response body.
func (c *Client) BlockRaw(ctx context.Context, blockID id.ID) ([]byte, error) {
	return c.getRaw(ctx, "/blocks/"+blockID.Dashed())
}
