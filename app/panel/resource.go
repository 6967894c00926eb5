package panel

import (
	"fmt"
	"strings"

	"postpanel/app/storage"
)

// Page names of a resource.
const (
	PageIndex  = "index"
	PageCreate = "create"
	PageEdit   = "edit"
)

// Page is a route of the resource relative to its base path.
type Page struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// RelationManager edits a relation of the record from its edit page.
type RelationManager struct {
	Relationship   string `json:"relationship"`
	TitleAttribute string `json:"title_attribute"`
	Label          string `json:"label"`
}

// Resource binds the post model to its form, table, relation managers and pages.
type Resource struct {
	Slug           string            `json:"slug"`
	Label          string            `json:"label"`
	PluralLabel    string            `json:"plural_label"`
	NavigationIcon string            `json:"navigation_icon"`
	BasePath       string            `json:"base_path"`
	Form           Form              `json:"form"`
	Table          Table             `json:"table"`
	Relations      []RelationManager `json:"relations"`
	Pages          []Page            `json:"pages"`
}

// URL builds the address of a page. record is used by the edit page only.
func (r *Resource) URL(page string, record int) string {
	for _, p := range r.Pages {
		if p.Name != page {
			continue
		}
		path := strings.ReplaceAll(p.Path, "{record}", fmt.Sprint(record))
		if path == "/" {
			return r.BasePath
		}
		return r.BasePath + path
	}
	return r.BasePath
}

// RecordURL is the address actions on one record are posted to.
func (r *Resource) RecordURL(record int, action string) string {
	u := fmt.Sprintf("%s/%d", r.BasePath, record)
	if action != "" {
		u += "/" + action
	}
	return u
}

// PostResource is the admin resource for posts.
func PostResource() *Resource {
	return &Resource{
		Slug:           "posts",
		Label:          "Post",
		PluralLabel:    "Posts",
		NavigationIcon: "heroicon-o-rectangle-stack",
		BasePath:       "/admin/posts",
		Form:           postForm(),
		Table:          postTable(),
		Relations: []RelationManager{
			{Relationship: "authors", TitleAttribute: "name", Label: "Authors"},
		},
		Pages: []Page{
			{Name: PageIndex, Path: "/"},
			{Name: PageCreate, Path: "/create"},
			{Name: PageEdit, Path: "/{record}/edit"},
		},
	}
}

func postForm() Form {
	return Form{
		Columns: 3,
		Main: []Section{
			{
				Heading:     "create post",
				Description: "create post over here",
				Columns:     2,
				ColumnSpan:  2,
				Fields: []Field{
					{Name: "title", Type: TextInput, Label: "Title", Required: true},
					{Name: "slug", Type: TextInput, Label: "Slug", Required: true},
					{Name: "color", Type: ColorPicker, Label: "Color", Required: true},
					{
						Name: "category_id", Type: Select, Label: "Category", Required: true,
						Relationship: &Relationship{Name: "category", TitleAttribute: "slug"},
					},
					{Name: "content", Type: RichEditor, Label: "Content", Required: true, ColumnSpanFull: true},
				},
			},
		},
		Aside: []Section{
			{
				Heading:     "Image",
				Collapsible: true,
				Columns:     1,
				ColumnSpan:  1,
				Fields: []Field{
					{
						Name: "thumbnail", Type: FileUpload, Label: "Thumbnail", Required: true,
						Disk: "public", Directory: "thumbnails", Accept: strings.Join(storage.ImageTypes, ","),
					},
				},
			},
			{
				Heading:    "Meta",
				Columns:    1,
				ColumnSpan: 1,
				Fields: []Field{
					{Name: "tags", Type: TagsInput, Label: "Tags", Required: true},
					{Name: "published", Type: Checkbox, Label: "Published"},
				},
			},
			{
				Heading:     "Authors",
				Collapsible: true,
				Columns:     1,
				ColumnSpan:  1,
				Fields: []Field{
					{
						Name: "authors", Type: CheckboxList, Label: "Authors", Input: "author_ids",
						Relationship: &Relationship{Name: "authors", TitleAttribute: "name"},
					},
				},
			},
		},
	}
}

func postTable() Table {
	return Table{
		Columns: []Column{
			{Name: "title", Label: "Post title", Type: TextColumn, Sortable: true, Searchable: true},
			{Name: "slug", Label: "Slug", Type: TextColumn, Searchable: true, Toggleable: true},
			{Name: "category.name", Label: "Category name", Type: TextColumn, Searchable: true, Toggleable: true},
			{Name: "color", Label: "Color", Type: ColorColumn, Toggleable: true},
			{Name: "thumbnail", Label: "Thumbnail", Type: ImageColumn, Disk: "public", Toggleable: true},
			{Name: "published", Label: "Published", Type: CheckboxColumn, Group: "Publishing info"},
			{Name: "created_at", Label: "Published On", Type: TextColumn, Date: true, Group: "Publishing info"},
		},
		Filters: []Filter{
			{Name: "published", Label: "Published", Type: TernaryFilter},
			{
				Name: "category_id", Label: "category", Type: SelectFilter,
				Relationship: &Relationship{Name: "category", TitleAttribute: "name"},
				Searchable:   true, Preload: true,
			},
		},
		Actions: []Action{
			{Name: "edit", Label: "Edit"},
			{Name: "delete", Label: "Delete", RequiresConf: true},
		},
		BulkActions: []Action{
			{Name: "delete", Label: "Delete selected", RequiresConf: true},
		},
	}
}
