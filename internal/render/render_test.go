package render

import (
	"strings"
	"testing"

	"github.com/sariola/notion2prompt/internal/model"
)

func textBlock(text string) *model.ParagraphBlock {
	return &model.ParagraphBlock{
		BlockCommon: model.BlockCommon{ID: "11111111111141118111111111111111", Type: "paragraph"},
		Paragraph: model.TextContent{
			RichText: []model.RichText{{Type: "text", PlainText: text}},
		},
	}
}

func TestRenderRichText_Annotations(t *testing.T) {
	tests := []struct {
		name string
		item model.RichText
		want string
	}{
		{"plain", model.RichText{PlainText: "hello"}, "hello"},
		{"bold", model.RichText{PlainText: "hi", Annotations: &model.Annotations{Bold: true}}, "**hi**"},
		{"code", model.RichText{PlainText: "x", Annotations: &model.Annotations{Code: true}}, "`x`"},
		{"strike", model.RichText{PlainText: "x", Annotations: &model.Annotations{Strikethrough: true}}, "~~x~~"},
		{
			"link",
			model.RichText{PlainText: "site", Text: &model.TextData{Content: "site", Link: &model.Link{URL: "https://x.dev"}}},
			"[site](https://x.dev)",
		},
		{
			"bold italic",
			model.RichText{PlainText: "x", Annotations: &model.Annotations{Bold: true, Italic: true}},
			"***x***",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderRichTextItem(tt.item); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderBlocks_Basics(t *testing.T) {
	blocks := []model.Block{
		&model.Heading1Block{
			BlockCommon: model.BlockCommon{Type: "heading_1"},
			Heading:     model.TextContent{RichText: []model.RichText{{PlainText: "Title"}}},
		},
		textBlock("Some prose."),
		&model.ToDoBlock{
			BlockCommon: model.BlockCommon{Type: "to_do"},
			ToDo:        model.TextContent{RichText: []model.RichText{{PlainText: "done thing"}}},
			Checked:     true,
		},
		&model.CodeBlock{
			BlockCommon: model.BlockCommon{Type: "code"},
			Code:        model.TextContent{RichText: []model.RichText{{PlainText: "x := 1"}}},
			Language:    "go",
		},
	}

	got := renderBlocks(blocks)
	for _, want := range []string{"# Title", "Some prose.", "- [x] done thing", "```go", "x := 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderBlocks_NumberedListCounter(t *testing.T) {
	item := func(text string) *model.NumberedListItemBlock {
		return &model.NumberedListItemBlock{
			BlockCommon: model.BlockCommon{Type: "numbered_list_item"},
			Item:        model.TextContent{RichText: []model.RichText{{PlainText: text}}},
		}
	}
	got := renderBlocks([]model.Block{item("one"), item("two"), textBlock("break"), item("restart")})

	for _, want := range []string{"1. one", "2. two", "1. restart"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderChildDatabase_States(t *testing.T) {
	db := &model.Database{
		ID:    "22222222222242228222222222222222",
		Title: []model.RichText{{PlainText: "Tasks"}},
		Properties: map[string]model.PropertySchema{
			"Name": {Type: "title"},
			"Due":  {Type: "date"},
		},
		Pages: []*model.Page{{
			ID:    "33333333333343338333333333333333",
			Title: "Task one",
			Properties: map[string]model.PropertyValue{
				"Name": {Type: "title", Title: []model.RichText{{PlainText: "Task one"}}},
				"Due":  {Type: "date", Date: &model.DateValue{Start: "2024-01-01"}},
			},
		}},
	}

	tests := []struct {
		name    string
		content model.ChildDatabaseContent
		want    string
	}{
		{"fetched", model.FetchedContent(db), "| Name | Due |"},
		{"fetched row", model.FetchedContent(db), "| Task one | 2024-01-01 |"},
		{"linked", model.LinkedContent(), "linked database"},
		{"inaccessible", model.InaccessibleContent("restricted_resource: no access"), "restricted_resource: no access"},
		{"not fetched", model.ChildDatabaseContent{}, "was not fetched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := &model.ChildDatabaseBlock{
				BlockCommon: model.BlockCommon{Type: "child_database"},
				Title:       "Tasks",
				Content:     tt.content,
			}
			got := renderBlocks([]model.Block{block})
			if !strings.Contains(got, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestPrompt_ClaudeXML(t *testing.T) {
	page := &model.Page{
		ID:     "11111111111141118111111111111111",
		Title:  "My Page",
		URL:    "https://www.notion.so/My-Page",
		Blocks: []model.Block{textBlock("Body text.")},
	}

	got, err := Prompt(page, Options{Template: TemplateClaudeXML, Instruction: "Summarize this."})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"<instruction>\nSummarize this.\n</instruction>",
		"<title>My Page</title>",
		"<source>https://www.notion.so/My-Page</source>",
		"Body text.",
		"</document>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestPrompt_DefaultTemplate(t *testing.T) {
	page := &model.Page{ID: "11111111111141118111111111111111", Title: "T", Blocks: []model.Block{textBlock("x")}}
	got, err := Prompt(page, Options{Template: TemplateDefault})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "# T") {
		t.Errorf("prompt = %q", got)
	}
}

func TestPrompt_UnknownTemplate(t *testing.T) {
	page := &model.Page{ID: "11111111111141118111111111111111", Title: "T"}
	if _, err := Prompt(page, Options{Template: "nope"}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestContent_PropertiesSection(t *testing.T) {
	checked := true
	page := &model.Page{
		ID:    "11111111111141118111111111111111",
		Title: "P",
		Properties: map[string]model.PropertyValue{
			"Name":   {Type: "title", Title: []model.RichText{{PlainText: "P"}}},
			"Done":   {Type: "checkbox", Checkbox: &checked},
			"Status": {Type: "status", Status: &model.SelectOption{Name: "In progress"}},
		},
	}

	got := Content(page, Options{IncludeProperties: true})
	if !strings.Contains(got, "## Properties") ||
		!strings.Contains(got, "- **Done**: Yes") ||
		!strings.Contains(got, "- **Status**: In progress") {
		t.Errorf("content = %q", got)
	}
	if strings.Contains(got, "**Name**") {
		t.Error("title property should not appear in the properties section")
	}

	without := Content(page, Options{})
	if strings.Contains(without, "## Properties") {
		t.Error("properties section should be off by default")
	}
}

func TestFormatProperty_Kinds(t *testing.T) {
	n := 42.5
	tests := []struct {
		name string
		pv   model.PropertyValue
		want string
	}{
		{"number", model.PropertyValue{Type: "number", Number: &n}, "42.5"},
		{"date range", model.PropertyValue{Type: "date", Date: &model.DateValue{Start: "2024-01-01", End: "2024-01-05"}}, "2024-01-01 → 2024-01-05"},
		{"multi select", model.PropertyValue{Type: "multi_select", MultiSelect: []model.SelectOption{{Name: "a"}, {Name: "b"}}}, "a, b"},
		{"unique id", model.PropertyValue{Type: "unique_id", UniqueID: &model.UniqueID{Prefix: "TASK", Number: 7}}, "TASK-7"},
		{"empty select", model.PropertyValue{Type: "select"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatProperty(tt.pv); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
