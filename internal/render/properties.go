package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sariola/notion2prompt/internal/model"
)

// FormatProperty renders a property value as a single line of text, used
// both for table cells and for the page properties section.
func FormatProperty(pv model.PropertyValue) string {
	switch pv.Type {
	case "title":
		return model.PlainText(pv.Title)
	case "rich_text":
		return renderRichText(pv.RichText)
	case "number":
		if pv.Number == nil {
			return ""
		}
		return strconv.FormatFloat(*pv.Number, 'f', -1, 64)
	case "select":
		if pv.Select == nil {
			return ""
		}
		return pv.Select.Name
	case "multi_select":
		return joinOptions(pv.MultiSelect)
	case "status":
		if pv.Status == nil {
			return ""
		}
		return pv.Status.Name
	case "date":
		return formatDate(pv.Date)
	case "people":
		names := make([]string, 0, len(pv.People))
		for _, user := range pv.People {
			if user.Name != "" {
				names = append(names, user.Name)
			}
		}
		return strings.Join(names, ", ")
	case "files":
		names := make([]string, 0, len(pv.Files))
		for _, f := range pv.Files {
			if f.Name != "" {
				names = append(names, f.Name)
			} else if url := f.FileURL(); url != "" {
				names = append(names, url)
			}
		}
		return strings.Join(names, ", ")
	case "checkbox":
		if pv.Checkbox != nil && *pv.Checkbox {
			return "Yes"
		}
		return "No"
	case "url":
		return deref(pv.URL)
	case "email":
		return deref(pv.Email)
	case "phone_number":
		return deref(pv.PhoneNumber)
	case "formula":
		return formatFormula(pv.Formula)
	case "relation":
		ids := make([]string, 0, len(pv.Relation))
		for _, ref := range pv.Relation {
			ids = append(ids, ref.ID)
		}
		return strings.Join(ids, ", ")
	case "rollup":
		return formatRollup(pv.Rollup)
	case "created_time":
		if pv.CreatedTime == nil {
			return ""
		}
		return pv.CreatedTime.Format("2006-01-02 15:04")
	case "last_edited_time":
		if pv.LastEditedTime == nil {
			return ""
		}
		return pv.LastEditedTime.Format("2006-01-02 15:04")
	case "created_by":
		if pv.CreatedBy == nil {
			return ""
		}
		return pv.CreatedBy.Name
	case "last_edited_by":
		if pv.LastEditedBy == nil {
			return ""
		}
		return pv.LastEditedBy.Name
	case "unique_id":
		if pv.UniqueID == nil {
			return ""
		}
		if pv.UniqueID.Prefix != "" {
			return fmt.Sprintf("%s-%d", pv.UniqueID.Prefix, pv.UniqueID.Number)
		}
		return strconv.FormatInt(pv.UniqueID.Number, 10)
	case "verification":
		if pv.Verification == nil {
			return ""
		}
		return pv.Verification.State
	default:
		return ""
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinOptions(options []model.SelectOption) string {
	names := make([]string, 0, len(options))
	for _, opt := range options {
		names = append(names, opt.Name)
	}
	return strings.Join(names, ", ")
}

func formatDate(d *model.DateValue) string {
	if d == nil || d.Start == "" {
		return ""
	}
	if d.End != "" {
		return d.Start + " → " + d.End
	}
	return d.Start
}

func formatFormula(f *model.FormulaValue) string {
	if f == nil {
		return ""
	}
	switch f.Type {
	case "string":
		return deref(f.String)
	case "number":
		if f.Number == nil {
			return ""
		}
		return strconv.FormatFloat(*f.Number, 'f', -1, 64)
	case "boolean":
		if f.Boolean != nil && *f.Boolean {
			return "true"
		}
		return "false"
	case "date":
		return formatDate(f.Date)
	}
	return ""
}

func formatRollup(r *model.RollupValue) string {
	if r == nil {
		return ""
	}
	switch r.Type {
	case "number":
		if r.Number == nil {
			return ""
		}
		return strconv.FormatFloat(*r.Number, 'f', -1, 64)
	case "date":
		return formatDate(r.Date)
	case "array":
		parts := make([]string, 0, len(r.Array))
		for _, item := range r.Array {
			if s := FormatProperty(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// sortedPropertyNames orders property names with the title property
// first, the rest alphabetical, so table columns are stable.
func sortedPropertyNames(schema map[string]model.PropertySchema) []string {
	names := make([]string, 0, len(schema))
	var title string
	for name, prop := range schema {
		if prop.Type == "title" && title == "" {
			title = name
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if title != "" {
		names = append([]string{title}, names...)
	}
	return names
}
