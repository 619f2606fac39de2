package render

import (
	"fmt"
	"strings"

	"github.com/sariola/notion2prompt/internal/model"
)

// blockRenderer accumulates markdown while walking a block list. Numbered
// list counters reset whenever a non-numbered block interrupts the run.
type blockRenderer struct {
	b       strings.Builder
	indent  int
	counter int
}

// renderBlocks renders a block list as markdown.
func renderBlocks(blocks []model.Block) string {
	r := &blockRenderer{}
	r.walk(blocks)
	return strings.TrimRight(r.b.String(), "\n") + "\n"
}

func (r *blockRenderer) walk(blocks []model.Block) {
	for _, block := range blocks {
		r.renderBlock(block)
	}
}

func (r *blockRenderer) line(s string) {
	if s == "" {
		return
	}
	prefix := strings.Repeat("  ", r.indent)
	for _, part := range strings.Split(s, "\n") {
		r.b.WriteString(prefix)
		r.b.WriteString(part)
		r.b.WriteString("\n")
	}
}

func (r *blockRenderer) blank() {
	r.b.WriteString("\n")
}

// children renders nested blocks one indent level deeper.
func (r *blockRenderer) children(blocks []model.Block) {
	if len(blocks) == 0 {
		return
	}
	r.indent++
	saved := r.counter
	r.counter = 0
	r.walk(blocks)
	r.counter = saved
	r.indent--
}

func (r *blockRenderer) renderBlock(block model.Block) {
	if _, isNumbered := block.(*model.NumberedListItemBlock); !isNumbered {
		r.counter = 0
	}

	switch v := block.(type) {
	case *model.ParagraphBlock:
		r.line(renderRichText(v.Paragraph.RichText))
		r.children(v.Children)
		r.blank()
	case *model.Heading1Block:
		r.line("# " + renderRichText(v.Heading.RichText))
		r.blank()
		r.children(v.Children)
	case *model.Heading2Block:
		r.line("## " + renderRichText(v.Heading.RichText))
		r.blank()
		r.children(v.Children)
	case *model.Heading3Block:
		r.line("### " + renderRichText(v.Heading.RichText))
		r.blank()
		r.children(v.Children)
	case *model.BulletedListItemBlock:
		r.line("- " + renderRichText(v.Item.RichText))
		r.children(v.Children)
	case *model.NumberedListItemBlock:
		r.counter++
		r.line(fmt.Sprintf("%d. %s", r.counter, renderRichText(v.Item.RichText)))
		r.children(v.Children)
	case *model.ToDoBlock:
		box := "[ ]"
		if v.Checked {
			box = "[x]"
		}
		r.line("- " + box + " " + renderRichText(v.ToDo.RichText))
		r.children(v.Children)
	case *model.ToggleBlock:
		r.line("- " + renderRichText(v.Toggle.RichText))
		r.children(v.Children)
	case *model.QuoteBlock:
		r.line("> " + renderRichText(v.Quote.RichText))
		r.children(v.Children)
		r.blank()
	case *model.CalloutBlock:
		text := renderRichText(v.Callout.RichText)
		if v.Icon != nil && v.Icon.Emoji != "" {
			text = v.Icon.Emoji + " " + text
		}
		r.line("> " + text)
		r.children(v.Children)
		r.blank()
	case *model.CodeBlock:
		r.line("```" + v.Language)
		r.line(model.PlainText(v.Code.RichText))
		r.line("```")
		if caption := renderRichText(v.Caption); caption != "" {
			r.line(caption)
		}
		r.blank()
	case *model.EquationBlock:
		r.line("$$" + v.Expression + "$$")
		r.blank()
	case *model.DividerBlock:
		r.line("---")
		r.blank()
	case *model.BreadcrumbBlock, *model.TableOfContentsBlock:
		// Navigation chrome carries no content worth a prompt line.
	case *model.BookmarkBlock:
		label := renderRichText(v.Caption)
		if label == "" {
			label = v.URL
		}
		r.line("[" + label + "](" + v.URL + ")")
		r.blank()
	case *model.EmbedBlock:
		r.line("[" + v.URL + "](" + v.URL + ")")
		r.blank()
	case *model.LinkPreviewBlock:
		r.line("[" + v.URL + "](" + v.URL + ")")
		r.blank()
	case *model.ImageBlock:
		r.renderMedia("Image", v.Image, v.Caption)
	case *model.VideoBlock:
		r.renderMedia("Video", v.Video, v.Caption)
	case *model.FileBlock:
		r.renderMedia("File", v.File, v.Caption)
	case *model.PDFBlock:
		r.renderMedia("PDF", v.PDF, v.Caption)
	case *model.ChildPageBlock:
		r.line("## " + v.Title)
		r.blank()
		r.children(v.Children)
	case *model.ChildDatabaseBlock:
		r.renderChildDatabase(v)
	case *model.LinkToPageBlock:
		r.line("[Linked page](https://www.notion.so/" + string(v.PageID) + ")")
		r.blank()
	case *model.TableBlock:
		r.renderTable(v)
		r.blank()
	case *model.TableRowBlock:
		// Rows render through their parent table.
	case *model.ColumnListBlock:
		r.walk(v.Children)
	case *model.ColumnBlock:
		r.walk(v.Children)
	case *model.SyncedBlock:
		r.walk(v.Children)
	case *model.TemplateBlock:
		r.line(renderRichText(v.Template.RichText))
		r.children(v.Children)
	case *model.UnsupportedBlock:
		// Unrepresentable content is omitted rather than rendered as noise.
	default:
		r.children(block.Common().Children)
	}
}

func (r *blockRenderer) renderMedia(kind string, file model.FileRef, caption []model.RichText) {
	url := file.FileURL()
	label := renderRichText(caption)
	if label == "" {
		label = kind
	}
	if url != "" {
		r.line(fmt.Sprintf("[%s](%s)", label, url))
	} else if label != kind {
		r.line(label)
	}
	r.blank()
}

// renderChildDatabase renders the four resolution states: an embedded
// database becomes a table, the failure states become explicit fallback
// lines so nothing is silently omitted.
func (r *blockRenderer) renderChildDatabase(v *model.ChildDatabaseBlock) {
	title := v.Title
	if title == "" && v.Content.Database != nil {
		title = v.Content.Database.PlainTitle()
	}

	switch v.Content.State {
	case model.ChildDatabaseFetched:
		if title != "" {
			r.line("### " + title)
			r.blank()
		}
		r.line(renderDatabaseTable(v.Content.Database))
		r.blank()
	case model.ChildDatabaseLinked:
		r.line(fmt.Sprintf("*Database %q is a linked database and cannot be fetched through the API.*", title))
		r.blank()
	case model.ChildDatabaseInaccessible:
		r.line(fmt.Sprintf("*Database %q is inaccessible: %s*", title, v.Content.Reason))
		r.blank()
	default:
		r.line(fmt.Sprintf("*Database %q was not fetched.*", title))
		r.blank()
	}
}

// renderTable renders a simple table block from its table_row children.
func (r *blockRenderer) renderTable(v *model.TableBlock) {
	var rows [][]string
	for _, child := range v.Children {
		row, ok := child.(*model.TableRowBlock)
		if !ok {
			continue
		}
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, renderRichText(cell))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	r.line("| " + strings.Join(rows[0], " | ") + " |")
	r.line("|" + strings.Repeat(" --- |", len(rows[0])))
	for _, row := range rows[1:] {
		r.line("| " + strings.Join(row, " | ") + " |")
	}
}

// renderDatabaseTable renders a database and its rows as a markdown
// table, title property first.
func renderDatabaseTable(db *model.Database) string {
	if db == nil {
		return ""
	}

	names := sortedPropertyNames(db.Properties)
	if len(names) == 0 {
		// A database with no schema still lists its row titles.
		var b strings.Builder
		for _, page := range db.Pages {
			b.WriteString("- " + page.DisplayTitle() + "\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}

	var b strings.Builder
	b.WriteString("| " + strings.Join(names, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(names)) + "\n")

	for _, page := range db.Pages {
		cells := make([]string, 0, len(names))
		for _, name := range names {
			cell := ""
			if pv, ok := page.Properties[name]; ok {
				cell = FormatProperty(pv)
			}
			cells = append(cells, escapeCell(cell))
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
