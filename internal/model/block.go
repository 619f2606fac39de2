package model

import "github.com/sariola/notion2prompt/internal/id"

// Block is one of the Notion block variants. Every variant embeds
// BlockCommon, so the interface is satisfied by the shared Common method.
// Dispatch on the concrete type where variant-specific handling is needed.
type Block interface {
	Common() *BlockCommon
}

// BlockCommon carries the fields every block variant shares.
type BlockCommon struct {
	ID          id.ID   `json:"id"`
	Type        string  `json:"type"`
	HasChildren bool    `json:"has_children,omitempty"`
	Archived    bool    `json:"archived,omitempty"`
	Children    []Block `json:"children,omitempty"`
}

// Common returns the shared block record. Pointer receiver so assembly can
// attach children in place.
func (c *BlockCommon) Common() *BlockCommon { return c }

// ObjectID makes every block variant an Object.
func (c *BlockCommon) ObjectID() id.ID { return c.ID }

// ObjectType makes every block variant an Object.
func (c *BlockCommon) ObjectType() string { return "block" }

// DisplayTitle makes every block variant an Object.
func (c *BlockCommon) DisplayTitle() string { return "block " + string(c.ID) }

// TextContent is the shared payload of text-bearing blocks.
type TextContent struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color,omitempty"`
}

// PlainText returns the block text as a plain string.
func (t TextContent) PlainText() string { return PlainText(t.RichText) }

type ParagraphBlock struct {
	BlockCommon
	Paragraph TextContent `json:"paragraph"`
}

type Heading1Block struct {
	BlockCommon
	Heading TextContent `json:"heading_1"`
}

type Heading2Block struct {
	BlockCommon
	Heading TextContent `json:"heading_2"`
}

type Heading3Block struct {
	BlockCommon
	Heading TextContent `json:"heading_3"`
}

type BulletedListItemBlock struct {
	BlockCommon
	Item TextContent `json:"bulleted_list_item"`
}

type NumberedListItemBlock struct {
	BlockCommon
	Item TextContent `json:"numbered_list_item"`
}

type ToDoBlock struct {
	BlockCommon
	ToDo    TextContent `json:"to_do"`
	Checked bool        `json:"checked,omitempty"`
}

type ToggleBlock struct {
	BlockCommon
	Toggle TextContent `json:"toggle"`
}

type QuoteBlock struct {
	BlockCommon
	Quote TextContent `json:"quote"`
}

type CalloutBlock struct {
	BlockCommon
	Callout TextContent `json:"callout"`
	Icon    *Icon       `json:"icon,omitempty"`
}

// Icon is a callout or page icon.
type Icon struct {
	Type     string        `json:"type"`
	Emoji    string        `json:"emoji,omitempty"`
	External *ExternalFile `json:"external,omitempty"`
	File     *HostedFile   `json:"file,omitempty"`
}

type CodeBlock struct {
	BlockCommon
	Code     TextContent `json:"code"`
	Language string      `json:"language,omitempty"`
	Caption  []RichText  `json:"caption,omitempty"`
}

type EquationBlock struct {
	BlockCommon
	Expression string `json:"expression"`
}

type DividerBlock struct {
	BlockCommon
}

type BreadcrumbBlock struct {
	BlockCommon
}

type TableOfContentsBlock struct {
	BlockCommon
}

type BookmarkBlock struct {
	BlockCommon
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
}

type EmbedBlock struct {
	BlockCommon
	URL string `json:"url"`
}

type ImageBlock struct {
	BlockCommon
	Image   FileRef    `json:"image"`
	Caption []RichText `json:"caption,omitempty"`
}

type VideoBlock struct {
	BlockCommon
	Video   FileRef    `json:"video"`
	Caption []RichText `json:"caption,omitempty"`
}

type FileBlock struct {
	BlockCommon
	File    FileRef    `json:"file"`
	Caption []RichText `json:"caption,omitempty"`
}

type PDFBlock struct {
	BlockCommon
	PDF     FileRef    `json:"pdf"`
	Caption []RichText `json:"caption,omitempty"`
}

type ChildPageBlock struct {
	BlockCommon
	Title string `json:"title"`
}

// ChildDatabaseState is the resolution state of a child database block.
type ChildDatabaseState int

const (
	// ChildDatabaseNotFetched is the initial parse state.
	ChildDatabaseNotFetched ChildDatabaseState = iota
	// ChildDatabaseFetched means the inline database was retrieved and
	// embedded into the block.
	ChildDatabaseFetched
	// ChildDatabaseLinked means the block references another workspace's
	// database through a linked view; the retrieve-database endpoint
	// cannot resolve it.
	ChildDatabaseLinked
	// ChildDatabaseInaccessible is a terminal failure: permission denied,
	// not found, or another unrecoverable error.
	ChildDatabaseInaccessible
)

func (s ChildDatabaseState) String() string {
	switch s {
	case ChildDatabaseFetched:
		return "fetched"
	case ChildDatabaseLinked:
		return "linked_database"
	case ChildDatabaseInaccessible:
		return "inaccessible"
	default:
		return "not_fetched"
	}
}

// ChildDatabaseContent is the four-state resolution field that lets the
// renderer behave meaningfully for every outcome without consulting any
// global state.
type ChildDatabaseContent struct {
	State    ChildDatabaseState `json:"state"`
	Database *Database          `json:"database,omitempty"`
	Reason   string             `json:"reason,omitempty"`
}

// FetchedContent marks a child database as resolved with its database.
func FetchedContent(db *Database) ChildDatabaseContent {
	return ChildDatabaseContent{State: ChildDatabaseFetched, Database: db}
}

// LinkedContent marks a child database as a linked view.
func LinkedContent() ChildDatabaseContent {
	return ChildDatabaseContent{State: ChildDatabaseLinked}
}

// InaccessibleContent marks a child database as terminally unreachable.
func InaccessibleContent(reason string) ChildDatabaseContent {
	return ChildDatabaseContent{State: ChildDatabaseInaccessible, Reason: reason}
}

type ChildDatabaseBlock struct {
	BlockCommon
	Title   string               `json:"title"`
	Content ChildDatabaseContent `json:"content"`
}

type LinkToPageBlock struct {
	BlockCommon
	PageID id.ID `json:"page_id"`
}

type LinkPreviewBlock struct {
	BlockCommon
	URL string `json:"url"`
}

type TableBlock struct {
	BlockCommon
	TableWidth      int  `json:"table_width"`
	HasColumnHeader bool `json:"has_column_header,omitempty"`
	HasRowHeader    bool `json:"has_row_header,omitempty"`
}

type TableRowBlock struct {
	BlockCommon
	Cells [][]RichText `json:"cells"`
}

type ColumnListBlock struct {
	BlockCommon
}

type ColumnBlock struct {
	BlockCommon
}

type SyncedBlock struct {
	BlockCommon
	SyncedFrom id.ID `json:"synced_from,omitempty"`
}

type TemplateBlock struct {
	BlockCommon
	Template TextContent `json:"template"`
}

type UnsupportedBlock struct {
	BlockCommon
	// RawType preserves the API type string for variants this model does
	// not represent.
	RawType string `json:"raw_type,omitempty"`
}

// TextOf returns the primary rich text of a block, or nil for variants
// without text content.
func TextOf(b Block) []RichText {
	switch v := b.(type) {
	case *ParagraphBlock:
		return v.Paragraph.RichText
	case *Heading1Block:
		return v.Heading.RichText
	case *Heading2Block:
		return v.Heading.RichText
	case *Heading3Block:
		return v.Heading.RichText
	case *BulletedListItemBlock:
		return v.Item.RichText
	case *NumberedListItemBlock:
		return v.Item.RichText
	case *ToDoBlock:
		return v.ToDo.RichText
	case *ToggleBlock:
		return v.Toggle.RichText
	case *QuoteBlock:
		return v.Quote.RichText
	case *CalloutBlock:
		return v.Callout.RichText
	case *CodeBlock:
		return v.Code.RichText
	case *TemplateBlock:
		return v.Template.RichText
	}
	return nil
}
