package model

import "strings"

// RichText is one item of Notion rich text. The shape mirrors the wire
// format so API responses unmarshal directly.
type RichText struct {
	Type        string       `json:"type,omitempty"`
	Text        *TextData    `json:"text,omitempty"`
	Mention     *Mention     `json:"mention,omitempty"`
	Equation    *Equation    `json:"equation,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text"`
	Href        string       `json:"href,omitempty"`
}

// TextData is the content of a plain text rich-text item.
type TextData struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is a hyperlink attached to rich text.
type Link struct {
	URL string `json:"url"`
}

// Equation is an inline LaTeX expression.
type Equation struct {
	Expression string `json:"expression"`
}

// Annotations carry rich-text styling flags.
type Annotations struct {
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Color         string `json:"color,omitempty"`
}

// Mention references another Notion entity inline.
type Mention struct {
	Type     string     `json:"type"`
	Page     *ObjectRef `json:"page,omitempty"`
	Database *ObjectRef `json:"database,omitempty"`
	User     *User      `json:"user,omitempty"`
	Date     *DateValue `json:"date,omitempty"`
	// LinkPreview carries the URL for link_preview mentions.
	LinkPreview *Link `json:"link_preview,omitempty"`
}

// ObjectRef is a bare ID reference inside a mention.
type ObjectRef struct {
	ID string `json:"id"`
}

// User is a Notion user or bot.
type User struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Email     string `json:"email,omitempty"`
}

// PlainText joins the plain-text content of a rich text run.
func PlainText(items []RichText) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(item.PlainText)
	}
	return b.String()
}
