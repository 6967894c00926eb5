package panel

// FieldType selects the input widget of a form field.
type FieldType string

const (
	TextInput    FieldType = "text_input"
	ColorPicker  FieldType = "color_picker"
	Select       FieldType = "select"
	RichEditor   FieldType = "rich_editor"
	FileUpload   FieldType = "file_upload"
	TagsInput    FieldType = "tags_input"
	Checkbox     FieldType = "checkbox"
	CheckboxList FieldType = "checkbox_list"
)

// Relationship binds a field, filter or manager to a related model.
type Relationship struct {
	Name           string `json:"name"`
	TitleAttribute string `json:"title_attribute"`
}

// Field is one input of the form.
type Field struct {
	Name           string        `json:"name"`
	Type           FieldType     `json:"type"`
	Label          string        `json:"label"`
	Required       bool          `json:"required"`
	ColumnSpanFull bool          `json:"column_span_full,omitempty"`
	Relationship   *Relationship `json:"relationship,omitempty"`
	Disk           string        `json:"disk,omitempty"`
	Directory      string        `json:"directory,omitempty"`
	Accept         string        `json:"accept,omitempty"`
	// Input is the submitted form key when it differs from Name.
	Input string `json:"input,omitempty"`
}

// InputName is the key the field is submitted and validated under.
func (f Field) InputName() string {
	if f.Input != "" {
		return f.Input
	}
	return f.Name
}

// Section is a titled box of fields laid out in Columns columns.
type Section struct {
	Heading     string  `json:"heading"`
	Description string  `json:"description,omitempty"`
	Collapsible bool    `json:"collapsible,omitempty"`
	Columns     int     `json:"columns"`
	ColumnSpan  int     `json:"column_span"`
	Fields      []Field `json:"fields"`
}

// Form is a grid of Columns columns: the main sections followed by a stacked
// group of aside sections.
type Form struct {
	Columns int       `json:"columns"`
	Main    []Section `json:"main"`
	Aside   []Section `json:"aside"`
}

// Sections returns main and aside sections in render order.
func (f Form) Sections() []Section {
	out := make([]Section, 0, len(f.Main)+len(f.Aside))
	out = append(out, f.Main...)
	return append(out, f.Aside...)
}

// Fields returns every field in render order.
func (f Form) Fields() []Field {
	var fields []Field
	for _, s := range f.Sections() {
		fields = append(fields, s.Fields...)
	}
	return fields
}

// Field looks a field up by name.
func (f Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields() {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// RequiredFields lists the names of the fields that block submission when empty.
func (f Form) RequiredFields() []string {
	var names []string
	for _, field := range f.Fields() {
		if field.Required {
			names = append(names, field.Name)
		}
	}
	return names
}
