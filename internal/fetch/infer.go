package fetch

import "github.com/sariola/notion2prompt/internal/model"

// inferSchemaFromPages reconstructs a database schema from queried rows.
// Used for linked databases: retrieve-database fails, but the query
// endpoint still returns pages, so the property types observed across
// those pages stand in for the real schema. Options and formats default
// to empty.
func inferSchemaFromPages(pages []*model.Page) map[string]model.PropertySchema {
	schema := make(map[string]model.PropertySchema)
	for _, page := range pages {
		for name, value := range page.Properties {
			if _, seen := schema[name]; seen {
				continue
			}
			if value.Type == "" {
				continue
			}
			schema[name] = model.PropertySchema{
				ID:   name,
				Name: name,
				Type: value.Type,
			}
		}
	}
	return schema
}
