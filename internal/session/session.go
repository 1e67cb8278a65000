// Package session carries one form analysis from inspection to the filled output.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-form-filler/internal/mapping"
	"github.com/a3tai/mcp-form-filler/internal/pdf/extraction"
	"github.com/a3tai/mcp-form-filler/internal/pdf/inspect"
	"github.com/a3tai/mcp-form-filler/internal/profile"
)

// Mode is how a document is processed.
type Mode string

const (
	ModeUnknown      Mode = ""
	ModeAcroForm     Mode = "acroform"
	ModeUnstructured Mode = "unstructured"
	ModeInvalid      Mode = "invalid"
)

// Session is an immutable snapshot of an analysis. Pipeline steps return updated copies.
type Session struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`

	Properties inspect.Properties `json:"properties"`
	Mode       Mode               `json:"mode"`
	Message    string             `json:"message,omitempty"`

	Fields        []extraction.FormField   `json:"fields,omitempty"`
	Labels        []extraction.TextElement `json:"labels,omitempty"`
	LabelStrategy string                   `json:"label_strategy,omitempty"`
	Attempts      []extraction.Attempt     `json:"attempts,omitempty"`

	Profile profile.Profile `json:"profile,omitempty"`
	Hint    string          `json:"hint,omitempty"`

	// DetectKind asks the pipeline to classify the form when no hint is given.
	DetectKind   bool   `json:"detect_kind,omitempty"`
	DetectedKind string `json:"detected_kind,omitempty"`

	Mapping    *mapping.Result  `json:"mapping,omitempty"`
	Plan       mapping.FillPlan `json:"plan,omitempty"`
	FilledPath string           `json:"filled_path,omitempty"`
	ExportPath string           `json:"export_path,omitempty"`
}

// New starts a session for the document at path.
func New(path string, p profile.Profile, hint string) Session {
	return Session{
		ID:        uuid.NewString(),
		Path:      path,
		CreatedAt: time.Now().UTC(),
		Profile:   p,
		Hint:      hint,
	}
}

// WithProfile returns a copy using p, discarding results that depended on the old profile.
func (s Session) WithProfile(p profile.Profile) Session {
	s.Profile = p
	return s.resetMapping()
}

// WithHint returns a copy using hint, discarding the previous mapping.
func (s Session) WithHint(hint string) Session {
	s.Hint = hint
	return s.resetMapping()
}

func (s Session) resetMapping() Session {
	s.Mapping = nil
	s.Plan = nil
	s.FilledPath = ""
	s.ExportPath = ""
	return s
}

// MappingLabels returns what the mapper should see: field names for AcroForms, label texts otherwise.
func (s Session) MappingLabels() []string {
	switch s.Mode {
	case ModeAcroForm:
		return extraction.FieldNames(s.Fields)
	case ModeUnstructured:
		return extraction.Texts(s.Labels)
	default:
		return nil
	}
}

// Mapped reports whether the session holds a usable mapping.
func (s Session) Mapped() bool {
	return s.Mapping != nil && s.Mapping.OK()
}
