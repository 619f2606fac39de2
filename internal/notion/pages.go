package notion

import (
	"context"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
)

// RetrievePage retrieves a page by ID.
// See: https://developers.notion.com/reference/retrieve-a-page
func (c *Client) RetrievePage(ctx context.Context, pageID id.ID) (*model.Page, error) {
	body, err := c.getRaw(ctx, "/pages/"+pageID.Dashed())
	if err != nil {
		return nil, err
	}
	return model.ParsePage(body)
}
