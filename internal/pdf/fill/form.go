package fill

import (
	"log/slog"
	"strings"

	"github.com/a3tai/mcp-form-filler/internal/pdf/extraction"
)

var truthy = map[string]bool{
	"yes":     true,
	"true":    true,
	"checked": true,
	"on":      true,
	"x":       true,
}

// IsTruthy reports whether value checks a checkbox.
func IsTruthy(value string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(value))]
}

// The types below mirror the form JSON accepted by pdfcpu's form filling.

type formGroup struct {
	Forms []form `json:"forms"`
}

type form struct {
	TextFields        []*textField        `json:"textfield,omitempty"`
	CheckBoxes        []*checkBox         `json:"checkbox,omitempty"`
	RadioButtonGroups []*radioButtonGroup `json:"radiobuttongroup,omitempty"`
	ComboBoxes        []*comboBox         `json:"combobox,omitempty"`
	ListBoxes         []*listBox          `json:"listbox,omitempty"`

	// Free holds choice values outside the declared options, keyed by field object number.
	// pdfcpu clears such values, so they are written onto the field dictionaries directly.
	Free map[string]string `json:"-"`
}

type fieldRef struct {
	Pages  []int  `json:"pages"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Locked bool   `json:"locked"`
}

type textField struct {
	fieldRef
	Value string `json:"value"`
}

type checkBox struct {
	fieldRef
	Value bool `json:"value"`
}

type radioButtonGroup struct {
	fieldRef
	Value string `json:"value"`
}

type comboBox struct {
	fieldRef
	Value string `json:"value"`
}

type listBox struct {
	fieldRef
	Values []string `json:"values"`
}

func (f form) size() int {
	return f.pdfcpuSize() + len(f.Free)
}

func (f form) pdfcpuSize() int {
	return len(f.TextFields) + len(f.CheckBoxes) + len(f.RadioButtonGroups) + len(f.ComboBoxes) + len(f.ListBoxes)
}

// buildForm translates plan values into pdfcpu form entries for the fields of the document.
// Plan entries without a matching field are logged and skipped.
func buildForm(fields []extraction.FormField, plan map[string]string, logCtx *slog.Logger) form {
	var f form

	known := make(map[string]bool, len(fields))

	for _, field := range fields {
		known[field.Name] = true

		value, ok := plan[field.Name]
		if !ok {
			continue
		}

		ref := fieldRef{ID: field.ID, Name: field.Name, Locked: field.ReadOnly, Pages: []int{}}
		if field.Page > 0 {
			ref.Pages = []int{field.Page}
		}

		switch field.Type {
		case extraction.FormFieldTypeCheckbox:
			f.CheckBoxes = append(f.CheckBoxes, &checkBox{fieldRef: ref, Value: IsTruthy(value)})

		case extraction.FormFieldTypeRadio:
			state, ok := radioState(field, value)
			if !ok {
				logCtx.Info("Leaving radio group untouched", "field", field.Name, "value", value)
				continue
			}
			f.RadioButtonGroups = append(f.RadioButtonGroups, &radioButtonGroup{fieldRef: ref, Value: state})

		case extraction.FormFieldTypeChoice:
			option, ok := choiceOption(field, value)
			if !ok {
				if field.ID == "" {
					logCtx.Warn("Cannot address choice field, skipping", "field", field.Name, "value", value)
					continue
				}
				logCtx.Info("Value is not one of the field's options, writing it as given", "field", field.Name, "value", value)
				if f.Free == nil {
					f.Free = make(map[string]string)
				}
				f.Free[field.ID] = value
				continue
			}
			if field.Combo {
				f.ComboBoxes = append(f.ComboBoxes, &comboBox{fieldRef: ref, Value: option})
			} else {
				f.ListBoxes = append(f.ListBoxes, &listBox{fieldRef: ref, Values: []string{option}})
			}

		case extraction.FormFieldTypeButton, extraction.FormFieldTypeSignature:
			logCtx.Info("Field type cannot hold a value, skipping", "field", field.Name, "type", field.Type)

		default:
			f.TextFields = append(f.TextFields, &textField{fieldRef: ref, Value: value})
		}
	}

	for name := range plan {
		if !known[name] {
			logCtx.Warn("Plan names a field the document does not have", "field", name)
		}
	}

	return f
}

// radioState picks the on-state for value: an exact state, otherwise the first state when truthy.
func radioState(field extraction.FormField, value string) (string, bool) {
	states := field.States
	if len(states) == 0 {
		states = field.Options
	}

	for _, s := range states {
		if s == value {
			return s, true
		}
	}

	if IsTruthy(value) && len(states) > 0 {
		return states[0], true
	}

	return "", false
}

// choiceOption matches value against the declared options, exactly then ignoring case.
// Fields without options accept anything. ok is false when no option matches.
func choiceOption(field extraction.FormField, value string) (string, bool) {
	if len(field.Options) == 0 {
		return value, true
	}

	for _, o := range field.Options {
		if o == value {
			return o, true
		}
	}

	for _, o := range field.Options {
		if strings.EqualFold(o, strings.TrimSpace(value)) {
			return o, true
		}
	}

	return "", false
}
