package notion

import (
	"context"
	"fmt"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
)

// RetrieveBlock retrieves a single block by ID.
// See: https://developers.notion.com/reference/retrieve-a-block
func (c *Client) RetrieveBlock(ctx context.Context, blockID id.ID) (model.Block, error) {
	body, err := c.getRaw(ctx, "/blocks/"+blockID.Dashed())
	if err != nil {
		return nil, err
	}
	return model.ParseBlock(body)
}

// RetrieveChildren lists the direct children of a page or block, driving
// pagination to completion.
// See: https://developers.notion.com/reference/get-block-children
func (c *Client) RetrieveChildren(ctx context.Context, parentID id.ID) ([]model.Block, error) {
	blocks, _, err := CollectBlockPages(ctx, c.ChildrenPageFetcher(parentID))
	return blocks, err
}

// ChildrenPageFetcher returns a FetchPageFunc for one page of a children
// listing. Exported so the cache wrapper can drive the same exchange while
// keeping the raw bodies.
func (c *Client) ChildrenPageFetcher(parentID id.ID) FetchPageFunc {
	base := fmt.Sprintf("/blocks/%s/children?page_size=%d", parentID.Dashed(), PageSize)
	return func(ctx context.Context, cursor string) ([]byte, error) {
		path := base
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}
		return c.getRaw(ctx, path)
	}
}
