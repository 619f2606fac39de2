// Package render composes the fetched object tree into the final prompt:
// markdown for block content, tables for databases, wrapped in a
// template.
package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/sariola/notion2prompt/internal/model"
)

// Template names accepted by Options.Template.
const (
	TemplateClaudeXML = "claude-xml"
	TemplateDefault   = "default"
)

const claudeXMLTemplate = `{{if .Instruction}}<instruction>
{{.Instruction}}
</instruction>

{{end}}<document>
<title>{{.Title}}</title>
{{if .URL}}<source>{{.URL}}</source>
{{end}}<content>
{{.Content}}</content>
</document>
`

const defaultTemplate = `{{if .Instruction}}{{.Instruction}}

{{end}}# {{.Title}}

{{.Content}}`

// Options control prompt composition.
type Options struct {
	// Template selects the prompt wrapper: claude-xml or default.
	Template string
	// Instruction is optional preamble text.
	Instruction string
	// IncludeProperties adds a page properties section.
	IncludeProperties bool
}

type templateData struct {
	Title       string
	URL         string
	Content     string
	Instruction string
}

// Prompt renders the assembled object tree into the final prompt text.
func Prompt(obj model.Object, opts Options) (string, error) {
	name := opts.Template
	if name == "" {
		name = TemplateClaudeXML
	}

	var text string
	switch name {
	case TemplateClaudeXML:
		text = claudeXMLTemplate
	case TemplateDefault:
		text = defaultTemplate
	default:
		return "", fmt.Errorf("unknown template %q (expected %s or %s)",
			name, TemplateClaudeXML, TemplateDefault)
	}

	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("template %s: %w", name, err)
	}

	data := templateData{
		Title:       obj.DisplayTitle(),
		Instruction: opts.Instruction,
		Content:     Content(obj, opts),
	}
	switch v := obj.(type) {
	case *model.Page:
		data.URL = v.URL
	case *model.Database:
		data.URL = v.URL
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("template %s: %w", name, err)
	}
	return b.String(), nil
}

// Content renders the body of an object without the template wrapper.
func Content(obj model.Object, opts Options) string {
	switch v := obj.(type) {
	case *model.Page:
		var b strings.Builder
		if opts.IncludeProperties {
			if section := propertiesSection(v); section != "" {
				b.WriteString(section)
				b.WriteString("\n")
			}
		}
		b.WriteString(renderBlocks(v.Blocks))
		return b.String()
	case *model.Database:
		return renderDatabaseTable(v) + "\n"
	case model.Block:
		return renderBlocks([]model.Block{v})
	}
	return ""
}

// propertiesSection lists a page's non-empty, non-title properties.
func propertiesSection(page *model.Page) string {
	type namedValue struct {
		name  string
		value string
	}
	var entries []namedValue
	for name, pv := range page.Properties {
		if pv.Type == "title" {
			continue
		}
		if value := FormatProperty(pv); value != "" {
			entries = append(entries, namedValue{name, value})
		}
	}
	if len(entries) == 0 {
		return ""
	}

	// Stable output regardless of map order.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].name < entries[j-1].name; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}

	var b strings.Builder
	b.WriteString("## Properties\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- **%s**: %s\n", e.name, e.value)
	}
	return b.String()
}
