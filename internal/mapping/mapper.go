package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/a3tai/mcp-form-filler/internal/llm"
)

// DefaultMaxLabels caps the labels embedded in one prompt.
const DefaultMaxLabels = 150

const (
	errCredential    = "credential not found"
	infoNoLabels     = "no fields to map"
	infoNoProfileKey = "no profile keys to map to"
)

// Result is the outcome of one mapping call. Exactly one of Mapping, Error or Info is meaningful:
// Error marks an unusable model, Info a call that had nothing to do.
type Result struct {
	Mapping FieldMapping `json:"mapping,omitempty"`
	Error   string       `json:"error,omitempty"`
	Info    string       `json:"info,omitempty"`
	// Raw is the model response, kept when it could not be parsed.
	Raw     string   `json:"raw,omitempty"`
	Dropped []string `json:"dropped,omitempty"`
}

// OK reports whether the result carries a usable mapping.
func (r Result) OK() bool {
	return r.Error == "" && r.Info == ""
}

// Mapper asks an LLM to match form labels to profile keys.
type Mapper struct {
	completer llm.Completer
	maxLabels int
}

// NewMapper creates a mapper. A nil completer means no credential was configured.
func NewMapper(completer llm.Completer, maxLabels int) *Mapper {
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}

	return &Mapper{
		completer: completer,
		maxLabels: maxLabels,
	}
}

// MapFields makes a single model call mapping labels onto profileKeys, guided by hint.
func (m *Mapper) MapFields(ctx context.Context, labels, profileKeys []string, hint string) Result {
	logCtx := slog.With("component", "field_mapper")

	if m.completer == nil {
		logCtx.Error("LLM credential not found")
		return Result{Error: errCredential}
	}

	if len(labels) == 0 {
		logCtx.Warn("No form labels provided for mapping")
		return Result{Info: infoNoLabels}
	}

	if len(profileKeys) == 0 {
		logCtx.Warn("No profile keys provided for mapping")
		return Result{Info: infoNoProfileKey}
	}

	var dropped []string
	if len(labels) > m.maxLabels {
		logCtx.Warn("Too many form labels, truncating", "count", len(labels), "max", m.maxLabels)
		dropped = append([]string(nil), labels[m.maxLabels:]...)
		labels = labels[:m.maxLabels]
	}

	prompt, err := BuildPrompt(labels, profileKeys, hint)
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to build prompt: %v", err), Dropped: dropped}
	}

	text, err := m.completer.Complete(ctx, prompt)
	if err != nil {
		logCtx.Error("LLM call failed", "error", err)
		return Result{Error: fmt.Sprintf("llm call failed: %v", err), Dropped: dropped}
	}

	mapping, err := ParseResponse(text)
	if err != nil {
		logCtx.Error("LLM response was not a valid JSON object", "error", err)
		return Result{
			Error:   fmt.Sprintf("invalid JSON in model response: %v", err),
			Raw:     text,
			Dropped: dropped,
		}
	}

	logCtx.Info("Mapped form labels", "labels", len(labels), "entries", len(mapping), "matched", mapping.Matched())

	return Result{Mapping: mapping, Dropped: dropped}
}

var promptTemplate = template.Must(template.New("prompt").Parse(`You are an intelligent assistant helping to map PDF form fields to structured user profile keys.

PDF Form Text Elements:
{{ .Labels }}

User Profile Data Keys:
{{ .Keys }}
{{ if .HasHint }}
{{ .Hint }}
{{ end }}
Instructions:
- Map each PDF field label (as key) to the most relevant profile key (as value).
- Use "NOMATCH" if there is no suitable match.
- Combine multiple keys with commas if needed.
- Respond only with a valid JSON object, without any other commentary.
Example:
{
  "Full Name": "firstName, lastName",
  "Date of Birth": "dob",
  "Signature": "NOMATCH"
}

Now provide the mapping as a valid JSON object:
`))

// BuildPrompt renders the mapping prompt.
func BuildPrompt(labels, profileKeys []string, hint string) (string, error) {
	labelJSON, err := json.MarshalIndent(labels, "", "  ")
	if err != nil {
		return "", err
	}

	keyJSON, err := json.MarshalIndent(profileKeys, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	data := struct {
		Labels  string
		Keys    string
		Hint    string
		HasHint bool
	}{
		Labels:  string(labelJSON),
		Keys:    string(keyJSON),
		Hint:    hint,
		HasHint: strings.TrimSpace(hint) != "",
	}

	if err := promptTemplate.Execute(&sb, data); err != nil {
		return "", err
	}

	return sb.String(), nil
}
