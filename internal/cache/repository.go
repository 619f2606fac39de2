package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
	"github.com/sariola/notion2prompt/internal/notion"
)

// Client is a notion.Repository that caches raw API JSON to disk. Cache
// hits re-parse through the standard parsers, so with the cache enabled a
// fetch yields byte-identical domain objects on a subsequent hit.
type Client struct {
	inner *notion.Client
	disk  *DiskCache
}

// Wrap layers a disk cache over a live client.
func Wrap(inner *notion.Client, disk *DiskCache) *Client {
	return &Client{inner: inner, disk: disk}
}

// cachedGet returns the raw body for key, fetching and storing on a miss.
func (c *Client) cachedGet(key string, fetch func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.disk.Get(key); ok {
		slog.Debug("cache hit", "key", key)
		return []byte(data), nil
	}
	slog.Debug("cache miss", "key", key)

	body, err := fetch()
	if err != nil {
		return nil, err
	}
	c.disk.Set(key, string(body))
	return body, nil
}

// RetrievePage implements notion.Repository.
func (c *Client) RetrievePage(ctx context.Context, pageID id.ID) (*model.Page, error) {
	body, err := c.cachedGet("page_"+string(pageID), func() ([]byte, error) {
		return c.inner.PageRaw(ctx, pageID)
	})
	if err != nil {
		return nil, err
	}
	return model.ParsePage(body)
}

// RetrieveDatabase implements notion.Repository.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID id.ID) (*model.Database, error) {
	body, err := c.cachedGet("db_"+string(databaseID), func() ([]byte, error) {
		return c.inner.DatabaseRaw(ctx, databaseID)
	})
	if err != nil {
		return nil, err
	}
	return model.ParseDatabase(body)
}

// RetrieveBlock implements notion.Repository.
func (c *Client) RetrieveBlock(ctx context.Context, blockID id.ID) (model.Block, error) {
	body, err := c.cachedGet("block_"+string(blockID), func() ([]byte, error) {
		return c.inner.BlockRaw(ctx, blockID)
	})
	if err != nil {
		return nil, err
	}
	return model.ParseBlock(body)
}

// RetrieveChildren implements notion.Repository. The raw body of every
// pagination page is cached as a single JSON array of strings; a hit
// replays each page through the live pagination parser.
func (c *Client) RetrieveChildren(ctx context.Context, parentID id.ID) ([]model.Block, error) {
	key := "children_" + string(parentID)

	if cached, ok := c.disk.Get(key); ok {
		slog.Debug("cache hit", "key", key)
		blocks, err := replayBlockPages(cached)
		if err == nil {
			return blocks, nil
		}
		slog.Debug("cache replay failed, refetching", "key", key, "error", err)
	} else {
		slog.Debug("cache miss", "key", key)
	}

	blocks, raw, err := notion.CollectBlockPages(ctx, c.inner.ChildrenPageFetcher(parentID))
	if err != nil {
		return nil, err
	}
	c.storePages(key, raw)
	return blocks, nil
}

// QueryRows implements notion.Repository, with the same array-of-raw-pages
// caching as RetrieveChildren. Sorting runs on both the live and the
// replayed path so the observable ordering is identical.
func (c *Client) QueryRows(ctx context.Context, databaseID id.ID) ([]*model.Page, error) {
	key := "rows_" + string(databaseID)

	if cached, ok := c.disk.Get(key); ok {
		slog.Debug("cache hit", "key", key)
		pages, err := replayRowPages(cached)
		if err == nil {
			notion.SortPagesByDateDesc(pages)
			return pages, nil
		}
		slog.Debug("cache replay failed, refetching", "key", key, "error", err)
	} else {
		slog.Debug("cache miss", "key", key)
	}

	pages, raw, err := notion.CollectRowPages(ctx, c.inner.RowsPageFetcher(databaseID))
	if err != nil {
		return nil, err
	}
	c.storePages(key, raw)
	notion.SortPagesByDateDesc(pages)
	return pages, nil
}

func (c *Client) storePages(key string, raw []string) {
	data, err := json.Marshal(raw)
	if err != nil {
		return
	}
	c.disk.Set(key, string(data))
}

func replayBlockPages(cached string) ([]model.Block, error) {
	var rawPages []string
	if err := json.Unmarshal([]byte(cached), &rawPages); err != nil {
		return nil, err
	}
	var blocks []model.Block
	for _, raw := range rawPages {
		page, err := model.ParseBlockList([]byte(raw))
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, page.Results...)
	}
	return blocks, nil
}

func replayRowPages(cached string) ([]*model.Page, error) {
	var rawPages []string
	if err := json.Unmarshal([]byte(cached), &rawPages); err != nil {
		return nil, err
	}
	var pages []*model.Page
	for _, raw := range rawPages {
		page, err := model.ParsePageList([]byte(raw))
		if err != nil {
			return nil, err
		}
		pages = append(pages, page.Results...)
	}
	return pages, nil
}
