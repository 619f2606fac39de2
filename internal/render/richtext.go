package render

import (
	"strings"

	"github.com/sariola/notion2prompt/internal/model"
)

// renderRichText renders a rich text run as markdown, applying
// annotations inside-out so nesting composes.
func renderRichText(items []model.RichText) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(renderRichTextItem(item))
	}
	return b.String()
}

func renderRichTextItem(item model.RichText) string {
	text := item.PlainText
	if text == "" && item.Text != nil {
		text = item.Text.Content
	}
	if text == "" {
		return ""
	}

	if item.Annotations != nil {
		a := item.Annotations
		if a.Code {
			text = "`" + text + "`"
		}
		if a.Bold {
			text = "**" + text + "**"
		}
		if a.Italic {
			text = "*" + text + "*"
		}
		if a.Strikethrough {
			text = "~~" + text + "~~"
		}
	}

	if url := linkTarget(item); url != "" {
		text = "[" + text + "](" + url + ")"
	}

	return text
}

func linkTarget(item model.RichText) string {
	if item.Text != nil && item.Text.Link != nil {
		return item.Text.Link.URL
	}
	if item.Href != "" && item.Mention != nil {
		return item.Href
	}
	return ""
}
