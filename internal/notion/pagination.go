package notion

import (
	"context"
	"sort"
	"time"

	"github.com/sariola/notion2prompt/internal/model"
)

// PageSize is the Notion API maximum page size, used for every paginated
// request.
const PageSize = 100

// FetchPageFunc fetches one page of a paginated endpoint. An empty cursor
// requests the first page. It returns the raw response body.
type FetchPageFunc func(ctx context.Context, cursor string) ([]byte, error)

// CollectBlockPages drives a GET-cursored children listing to completion.
// It returns the parsed blocks along with the raw body of every page so
// callers can cache the exchange at the raw-JSON layer. A failed page
// fails the whole listing; partial results are discarded.
func CollectBlockPages(ctx context.Context, fetch FetchPageFunc) ([]model.Block, []string, error) {
	var (
		blocks []model.Block
		raw    []string
		cursor string
	)
	for {
		body, err := fetch(ctx, cursor)
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, string(body))

		page, err := model.ParseBlockList(body)
		if err != nil {
			return nil, nil, err
		}
		blocks = append(blocks, page.Results...)

		if !page.HasMore || page.NextCursor == "" {
			return blocks, raw, nil
		}
		cursor = page.NextCursor
	}
}

// CollectRowPages drives a POST-cursored database query to completion,
// with the same raw-body collection as CollectBlockPages. Ordering of the
// result is the caller's concern.
func CollectRowPages(ctx context.Context, fetch FetchPageFunc) ([]*model.Page, []string, error) {
	var (
		pages  []*model.Page
		raw    []string
		cursor string
	)
	for {
		body, err := fetch(ctx, cursor)
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, string(body))

		page, err := model.ParsePageList(body)
		if err != nil {
			return nil, nil, err
		}
		pages = append(pages, page.Results...)

		if !page.HasMore || page.NextCursor == "" {
			return pages, raw, nil
		}
		cursor = page.NextCursor
	}
}

// SortPagesByDateDesc sorts pages newest-first by their first date-like
// property. The sort key is the property name whose first observed page
// has a native date value; when no page has one, any date-yielding
// property (rollup, formula, created/last-edited time) is used instead.
// Pages lacking a value sort to the bottom. First-observed-date property
// wins; property names are scanned in sorted order within each page so
// the choice is deterministic.
func SortPagesByDateDesc(pages []*model.Page) {
	prop := findDateProperty(pages, model.HasNativeDate)
	if prop == "" {
		prop = findDateProperty(pages, func(pv model.PropertyValue) bool {
			_, ok := model.DateOf(pv)
			return ok
		})
	}
	if prop == "" {
		return
	}

	dateOf := func(p *model.Page) (time.Time, bool) {
		pv, ok := p.Properties[prop]
		if !ok {
			return time.Time{}, false
		}
		return model.DateOf(pv)
	}

	sort.SliceStable(pages, func(i, j int) bool {
		ti, iOK := dateOf(pages[i])
		tj, jOK := dateOf(pages[j])
		switch {
		case iOK && jOK:
			return ti.After(tj)
		case iOK:
			return true
		default:
			return false
		}
	})
}

func findDateProperty(pages []*model.Page, match func(model.PropertyValue) bool) string {
	for _, page := range pages {
		names := make([]string, 0, len(page.Properties))
		for name := range page.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if match(page.Properties[name]) {
				return name
			}
		}
	}
	return ""
}
