package model

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sariola/notion2prompt/internal/id"
)

// ParseError reports an API payload that could not be turned into the
// domain model.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParsePage parses a /pages/{id} response body.
func ParsePage(data []byte) (*Page, error) {
	var raw struct {
		Object     string                   `json:"object"`
		ID         string                   `json:"id"`
		URL        string                   `json:"url"`
		Archived   bool                     `json:"archived"`
		Parent     *Parent                  `json:"parent"`
		Properties map[string]PropertyValue `json:"properties"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{What: "page", Err: err}
	}
	pageID, err := id.Parse(raw.ID)
	if err != nil {
		return nil, &ParseError{What: "page", Err: err}
	}
	return &Page{
		ID:         pageID,
		Title:      titleFromProperties(raw.Properties),
		URL:        raw.URL,
		Properties: raw.Properties,
		Parent:     raw.Parent,
		Archived:   raw.Archived,
	}, nil
}

// titleFromProperties extracts the plain-text title from a page's
// properties, falling back to "Untitled".
func titleFromProperties(props map[string]PropertyValue) string {
	for _, pv := range props {
		if pv.Type == "title" {
			if t := PlainText(pv.Title); t != "" {
				return t
			}
		}
	}
	return "Untitled"
}

// ParseDatabase parses a /databases/{id} response body.
func ParseDatabase(data []byte) (*Database, error) {
	var raw struct {
		Object     string                     `json:"object"`
		ID         string                     `json:"id"`
		URL        string                     `json:"url"`
		Archived   bool                       `json:"archived"`
		Parent     *Parent                    `json:"parent"`
		Title      []RichText                 `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{What: "database", Err: err}
	}
	dbID, err := id.Parse(raw.ID)
	if err != nil {
		return nil, &ParseError{What: "database", Err: err}
	}

	props := make(map[string]PropertySchema, len(raw.Properties))
	for name, rawProp := range raw.Properties {
		schema, err := parsePropertySchema(rawProp)
		if err != nil {
			slog.Warn("skipping unparseable database property", "property", name, "error", err)
			continue
		}
		props[name] = schema
	}

	return &Database{
		ID:         dbID,
		Title:      raw.Title,
		URL:        raw.URL,
		Properties: props,
		Parent:     raw.Parent,
		Archived:   raw.Archived,
	}, nil
}

// parsePropertySchema parses one entry of a database's property map.
func parsePropertySchema(data []byte) (PropertySchema, error) {
	var raw struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Type   string `json:"type"`
		Number *struct {
			Format string `json:"format"`
		} `json:"number"`
		Select *struct {
			Options []SelectOption `json:"options"`
		} `json:"select"`
		MultiSelect *struct {
			Options []SelectOption `json:"options"`
		} `json:"multi_select"`
		Status *struct {
			Options []SelectOption `json:"options"`
		} `json:"status"`
		Formula *struct {
			Expression string `json:"expression"`
		} `json:"formula"`
		Relation *struct {
			DatabaseID string `json:"database_id"`
		} `json:"relation"`
		Rollup *struct {
			Function string `json:"function"`
		} `json:"rollup"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return PropertySchema{}, err
	}

	schema := PropertySchema{ID: raw.ID, Name: raw.Name, Type: raw.Type}
	switch {
	case raw.Number != nil:
		schema.NumberFormat = raw.Number.Format
	case raw.Select != nil:
		schema.Options = raw.Select.Options
	case raw.MultiSelect != nil:
		schema.Options = raw.MultiSelect.Options
	case raw.Status != nil:
		schema.Options = raw.Status.Options
	case raw.Formula != nil:
		schema.FormulaExpression = raw.Formula.Expression
	case raw.Relation != nil:
		schema.RelationDatabaseID = raw.Relation.DatabaseID
	case raw.Rollup != nil:
		schema.RollupFunction = raw.Rollup.Function
	}
	return schema, nil
}

// ParseBlock parses a /blocks/{id} response body into the matching variant.
func ParseBlock(data []byte) (Block, error) {
	var head struct {
		Object      string `json:"object"`
		ID          string `json:"id"`
		Type        string `json:"type"`
		HasChildren bool   `json:"has_children"`
		Archived    bool   `json:"archived"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &ParseError{What: "block", Err: err}
	}
	blockID, err := id.Parse(head.ID)
	if err != nil {
		return nil, &ParseError{What: "block", Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &ParseError{What: "block", Err: err}
	}
	payload := fields[head.Type]

	common := BlockCommon{
		ID:          blockID,
		Type:        head.Type,
		HasChildren: head.HasChildren,
		Archived:    head.Archived,
	}

	block, err := parseBlockVariant(common, head.Type, payload)
	if err != nil {
		return nil, &ParseError{What: "block", Err: err}
	}
	return block, nil
}

func parseBlockVariant(common BlockCommon, blockType string, payload json.RawMessage) (Block, error) {
	decode := func(v any) error {
		if len(payload) == 0 {
			return nil
		}
		return json.Unmarshal(payload, v)
	}

	switch blockType {
	case "paragraph":
		b := &ParagraphBlock{BlockCommon: common}
		return b, decode(&b.Paragraph)
	case "heading_1":
		b := &Heading1Block{BlockCommon: common}
		return b, decode(&b.Heading)
	case "heading_2":
		b := &Heading2Block{BlockCommon: common}
		return b, decode(&b.Heading)
	case "heading_3":
		b := &Heading3Block{BlockCommon: common}
		return b, decode(&b.Heading)
	case "bulleted_list_item":
		b := &BulletedListItemBlock{BlockCommon: common}
		return b, decode(&b.Item)
	case "numbered_list_item":
		b := &NumberedListItemBlock{BlockCommon: common}
		return b, decode(&b.Item)
	case "to_do":
		var raw struct {
			TextContent
			Checked bool `json:"checked"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &ToDoBlock{BlockCommon: common, ToDo: raw.TextContent, Checked: raw.Checked}, nil
	case "toggle":
		b := &ToggleBlock{BlockCommon: common}
		return b, decode(&b.Toggle)
	case "quote":
		b := &QuoteBlock{BlockCommon: common}
		return b, decode(&b.Quote)
	case "callout":
		var raw struct {
			TextContent
			Icon *Icon `json:"icon"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &CalloutBlock{BlockCommon: common, Callout: raw.TextContent, Icon: raw.Icon}, nil
	case "code":
		var raw struct {
			TextContent
			Language string     `json:"language"`
			Caption  []RichText `json:"caption"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &CodeBlock{BlockCommon: common, Code: raw.TextContent, Language: raw.Language, Caption: raw.Caption}, nil
	case "equation":
		var raw struct {
			Expression string `json:"expression"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &EquationBlock{BlockCommon: common, Expression: raw.Expression}, nil
	case "divider":
		return &DividerBlock{BlockCommon: common}, nil
	case "breadcrumb":
		return &BreadcrumbBlock{BlockCommon: common}, nil
	case "table_of_contents":
		return &TableOfContentsBlock{BlockCommon: common}, nil
	case "bookmark":
		var raw struct {
			URL     string     `json:"url"`
			Caption []RichText `json:"caption"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &BookmarkBlock{BlockCommon: common, URL: raw.URL, Caption: raw.Caption}, nil
	case "embed":
		var raw struct {
			URL string `json:"url"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &EmbedBlock{BlockCommon: common, URL: raw.URL}, nil
	case "image":
		var raw struct {
			FileRef
			Caption []RichText `json:"caption"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &ImageBlock{BlockCommon: common, Image: raw.FileRef, Caption: raw.Caption}, nil
	case "video":
		var raw struct {
			FileRef
			Caption []RichText `json:"caption"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &VideoBlock{BlockCommon: common, Video: raw.FileRef, Caption: raw.Caption}, nil
	case "file":
		var raw struct {
			FileRef
			Caption []RichText `json:"caption"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &FileBlock{BlockCommon: common, File: raw.FileRef, Caption: raw.Caption}, nil
	case "pdf":
		var raw struct {
			FileRef
			Caption []RichText `json:"caption"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &PDFBlock{BlockCommon: common, PDF: raw.FileRef, Caption: raw.Caption}, nil
	case "child_page":
		var raw struct {
			Title string `json:"title"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &ChildPageBlock{BlockCommon: common, Title: raw.Title}, nil
	case "child_database":
		var raw struct {
			Title string `json:"title"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &ChildDatabaseBlock{BlockCommon: common, Title: raw.Title}, nil
	case "link_to_page":
		var raw struct {
			Type   string `json:"type"`
			PageID string `json:"page_id"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		pageID, err := id.Parse(raw.PageID)
		if err != nil {
			return nil, fmt.Errorf("link_to_page page_id: %w", err)
		}
		return &LinkToPageBlock{BlockCommon: common, PageID: pageID}, nil
	case "link_preview":
		var raw struct {
			URL string `json:"url"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &LinkPreviewBlock{BlockCommon: common, URL: raw.URL}, nil
	case "table":
		var raw struct {
			TableWidth      int  `json:"table_width"`
			HasColumnHeader bool `json:"has_column_header"`
			HasRowHeader    bool `json:"has_row_header"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &TableBlock{
			BlockCommon:     common,
			TableWidth:      raw.TableWidth,
			HasColumnHeader: raw.HasColumnHeader,
			HasRowHeader:    raw.HasRowHeader,
		}, nil
	case "table_row":
		var raw struct {
			Cells [][]RichText `json:"cells"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		return &TableRowBlock{BlockCommon: common, Cells: raw.Cells}, nil
	case "column_list":
		return &ColumnListBlock{BlockCommon: common}, nil
	case "column":
		return &ColumnBlock{BlockCommon: common}, nil
	case "synced_block":
		var raw struct {
			SyncedFrom *struct {
				BlockID string `json:"block_id"`
			} `json:"synced_from"`
		}
		if err := decode(&raw); err != nil {
			return nil, err
		}
		b := &SyncedBlock{BlockCommon: common}
		if raw.SyncedFrom != nil {
			if syncedID, err := id.Parse(raw.SyncedFrom.BlockID); err == nil {
				b.SyncedFrom = syncedID
			} else {
				slog.Warn("synced_block with invalid source ID", "block", common.ID, "error", err)
			}
		}
		return b, nil
	case "template":
		b := &TemplateBlock{BlockCommon: common}
		return b, decode(&b.Template)
	default:
		return &UnsupportedBlock{BlockCommon: common, RawType: blockType}, nil
	}
}

// PaginatedBlocks is one page of a /blocks/{id}/children response.
type PaginatedBlocks struct {
	Results    []Block
	NextCursor string
	HasMore    bool
}

// ParseBlockList parses one page of a children listing.
func ParseBlockList(data []byte) (*PaginatedBlocks, error) {
	var raw struct {
		Object     string            `json:"object"`
		Results    []json.RawMessage `json:"results"`
		NextCursor *string           `json:"next_cursor"`
		HasMore    bool              `json:"has_more"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{What: "block list", Err: err}
	}

	out := &PaginatedBlocks{HasMore: raw.HasMore}
	if raw.NextCursor != nil {
		out.NextCursor = *raw.NextCursor
	}
	for i, item := range raw.Results {
		block, err := ParseBlock(item)
		if err != nil {
			return nil, &ParseError{What: "block list", Err: fmt.Errorf("result %d: %w", i, err)}
		}
		out.Results = append(out.Results, block)
	}
	return out, nil
}

// PaginatedPages is one page of a database query response.
type PaginatedPages struct {
	Results    []*Page
	NextCursor string
	HasMore    bool
}

// ParsePageList parses one page of a database query.
func ParsePageList(data []byte) (*PaginatedPages, error) {
	var raw struct {
		Object     string            `json:"object"`
		Results    []json.RawMessage `json:"results"`
		NextCursor *string           `json:"next_cursor"`
		HasMore    bool              `json:"has_more"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{What: "page list", Err: err}
	}

	out := &PaginatedPages{HasMore: raw.HasMore}
	if raw.NextCursor != nil {
		out.NextCursor = *raw.NextCursor
	}
	for i, item := range raw.Results {
		page, err := ParsePage(item)
		if err != nil {
			return nil, &ParseError{What: "page list", Err: fmt.Errorf("result %d: %w", i, err)}
		}
		out.Results = append(out.Results, page)
	}
	return out, nil
}
