// Package model defines the domain model for Notion content: pages,
// databases, the block variants, property values, and rich text. All model
// values are produced by parsing API JSON and are treated as immutable
// after creation, except for the graph-assembly step which fills in
// children, rows, and embedded databases exactly once.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/sariola/notion2prompt/internal/id"
)

// Object is any top-level Notion object: a page, a database, or a block.
type Object interface {
	ObjectID() id.ID
	ObjectType() string
	DisplayTitle() string
}

// Page is a Notion page. Blocks is empty until graph assembly populates it.
type Page struct {
	ID         id.ID                    `json:"id"`
	Title      string                   `json:"title"`
	URL        string                   `json:"url,omitempty"`
	Blocks     []Block                  `json:"blocks,omitempty"`
	Properties map[string]PropertyValue `json:"properties,omitempty"`
	Parent     *Parent                  `json:"parent,omitempty"`
	Archived   bool                     `json:"archived,omitempty"`
}

func (p *Page) ObjectID() id.ID     { return p.ID }
func (p *Page) ObjectType() string  { return "page" }
func (p *Page) DisplayTitle() string {
	if p.Title == "" {
		return "Untitled"
	}
	return p.Title
}

// Database is a Notion database. Pages is empty until graph assembly
// attaches the queried rows.
type Database struct {
	ID         id.ID                     `json:"id"`
	Title      []RichText                `json:"title"`
	URL        string                    `json:"url,omitempty"`
	Pages      []*Page                   `json:"pages,omitempty"`
	Properties map[string]PropertySchema `json:"properties,omitempty"`
	Parent     *Parent                   `json:"parent,omitempty"`
	Archived   bool                      `json:"archived,omitempty"`
}

func (d *Database) ObjectID() id.ID    { return d.ID }
func (d *Database) ObjectType() string { return "database" }

// PlainTitle returns the database title as plain text.
func (d *Database) PlainTitle() string {
	return PlainText(d.Title)
}

func (d *Database) DisplayTitle() string {
	if t := d.PlainTitle(); t != "" {
		return t
	}
	return "Untitled Database"
}

// Parent is a reference to an object's parent.
type Parent struct {
	Type       string `json:"type"`
	PageID     id.ID  `json:"page_id,omitempty"`
	DatabaseID id.ID  `json:"database_id,omitempty"`
	BlockID    id.ID  `json:"block_id,omitempty"`
}

// UnmarshalJSON normalizes the parent's ID fields to canonical form.
func (p *Parent) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type       string `json:"type"`
		PageID     string `json:"page_id"`
		DatabaseID string `json:"database_id"`
		BlockID    string `json:"block_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Type = aux.Type
	var err error
	if aux.PageID != "" {
		if p.PageID, err = id.Parse(aux.PageID); err != nil {
			return fmt.Errorf("parent page_id: %w", err)
		}
	}
	if aux.DatabaseID != "" {
		if p.DatabaseID, err = id.Parse(aux.DatabaseID); err != nil {
			return fmt.Errorf("parent database_id: %w", err)
		}
	}
	if aux.BlockID != "" {
		if p.BlockID, err = id.Parse(aux.BlockID); err != nil {
			return fmt.Errorf("parent block_id: %w", err)
		}
	}
	return nil
}

// RefID returns the parent's referenced ID, empty for workspace parents.
func (p *Parent) RefID() id.ID {
	switch p.Type {
	case "page_id":
		return p.PageID
	case "database_id":
		return p.DatabaseID
	case "block_id":
		return p.BlockID
	}
	return ""
}

// PropertySchema describes one property in a database schema.
type PropertySchema struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name,omitempty"`
	Type    string         `json:"type"`
	Options []SelectOption `json:"options,omitempty"`
	// NumberFormat carries the display format for number properties.
	NumberFormat string `json:"number_format,omitempty"`
	// FormulaExpression carries the expression for formula properties.
	FormulaExpression string `json:"formula_expression,omitempty"`
	// RelationDatabaseID names the related database for relation properties.
	RelationDatabaseID string `json:"relation_database_id,omitempty"`
	// RollupFunction names the aggregation for rollup properties.
	RollupFunction string `json:"rollup_function,omitempty"`
}
