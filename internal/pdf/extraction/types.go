package extraction

// Coordinate represents a point in PDF coordinate space
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox represents a rectangular area in PDF coordinate space
type BoundingBox struct {
	LowerLeft  Coordinate `json:"lower_left"`
	UpperRight Coordinate `json:"upper_right"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
}

// FormFieldType represents the type of a form field
type FormFieldType string

const (
	FormFieldTypeText      FormFieldType = "text"
	FormFieldTypeCheckbox  FormFieldType = "checkbox"
	FormFieldTypeRadio     FormFieldType = "radio"
	FormFieldTypeChoice    FormFieldType = "choice"
	FormFieldTypeButton    FormFieldType = "button"
	FormFieldTypeSignature FormFieldType = "signature"
	FormFieldTypeUnknown   FormFieldType = "unknown"
)

// FormField represents an interactive form field in a PDF. Name is the fully qualified
// field name and is unique within a document.
type FormField struct {
	Name  string        `json:"name"`
	ID    string        `json:"id"`
	Type  FormFieldType `json:"type"`
	Value *string       `json:"value"`
	Rect  *BoundingBox  `json:"rect"`
	// Options lists the declared choices of choice fields and is nil for every other type.
	Options []string `json:"options"`
	// States lists the on-state appearance names of checkbox and radio widgets.
	States   []string `json:"states,omitempty"`
	Combo    bool     `json:"combo,omitempty"`
	ReadOnly bool     `json:"read_only"`
	Page     int      `json:"page"`
}

// ValueString returns the current value or "" when the field has none.
func (f FormField) ValueString() string {
	if f.Value == nil {
		return ""
	}
	return *f.Value
}

// TextElement is a candidate label produced by the unstructured extraction strategies.
type TextElement struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Texts returns the element texts in order.
func Texts(elements []TextElement) []string {
	out := make([]string, 0, len(elements))
	for _, e := range elements {
		out = append(out, e.Text)
	}
	return out
}

// FieldNames returns the field names in order.
func FieldNames(fields []FormField) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}
