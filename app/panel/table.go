package panel

import (
	"postpanel/app/models"
)

// ColumnType selects how a cell is rendered.
type ColumnType string

const (
	TextColumn     ColumnType = "text"
	ColorColumn    ColumnType = "color"
	ImageColumn    ColumnType = "image"
	CheckboxColumn ColumnType = "checkbox"
)

// DateFormat is the layout of date columns.
const DateFormat = "Jan 2, 2006"

// Column is one column of the table. Name may traverse a relation ("category.name").
type Column struct {
	Name       string     `json:"name"`
	Label      string     `json:"label"`
	Type       ColumnType `json:"type"`
	Sortable   bool       `json:"sortable,omitempty"`
	Searchable bool       `json:"searchable,omitempty"`
	Toggleable bool       `json:"toggleable,omitempty"`
	Date       bool       `json:"date,omitempty"`
	Disk       string     `json:"disk,omitempty"`
	Group      string     `json:"group,omitempty"`
}

// FilterType selects the filter widget.
type FilterType string

const (
	TernaryFilter FilterType = "ternary"
	SelectFilter  FilterType = "select"
)

// Filter narrows the rows of the table.
type Filter struct {
	Name         string        `json:"name"`
	Label        string        `json:"label"`
	Type         FilterType    `json:"type"`
	Relationship *Relationship `json:"relationship,omitempty"`
	Searchable   bool          `json:"searchable,omitempty"`
	Preload      bool          `json:"preload,omitempty"`
}

// Action is a row or bulk action.
type Action struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	RequiresConf bool   `json:"requires_confirmation,omitempty"`
}

// Table describes the list page.
type Table struct {
	Columns     []Column `json:"columns"`
	Filters     []Filter `json:"filters"`
	Actions     []Action `json:"actions"`
	BulkActions []Action `json:"bulk_actions"`
}

// HeaderGroup is a run of adjacent columns sharing a group label ("" for none).
type HeaderGroup struct {
	Label   string
	Columns []Column
}

// VisibleColumns drops the toggleable columns the user has hidden.
func (t Table) VisibleColumns(hidden map[string]bool) []Column {
	cols := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Toggleable && hidden[c.Name] {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// HeaderGroups splits columns into runs with the same group label.
func HeaderGroups(cols []Column) []HeaderGroup {
	var groups []HeaderGroup
	for _, c := range cols {
		if n := len(groups); n > 0 && groups[n-1].Label == c.Group {
			groups[n-1].Columns = append(groups[n-1].Columns, c)
			continue
		}
		groups = append(groups, HeaderGroup{Label: c.Group, Columns: []Column{c}})
	}
	return groups
}

// Column looks a column up by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Filter looks a filter up by name.
func (t Table) Filter(name string) (Filter, bool) {
	for _, f := range t.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

// Value resolves the cell of column c for post p.
func (c Column) Value(p *models.Post) interface{} {
	switch c.Name {
	case "title":
		return p.Title
	case "slug":
		return p.Slug
	case "category.name":
		return p.CategoryName()
	case "color":
		return p.Color
	case "thumbnail":
		return p.Thumbnail
	case "published":
		return p.Published
	case "created_at":
		if c.Date {
			return p.CreatedAt.Format(DateFormat)
		}
		return p.CreatedAt
	default:
		return nil
	}
}
