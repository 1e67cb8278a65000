// Package mapping turns form labels into profile references with an LLM and resolves them to values.
package mapping

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NoMatch is the sentinel the model uses for labels without a suitable profile key.
const NoMatch = "NOMATCH"

// TargetKind discriminates the variants of Target.
type TargetKind int

const (
	Unmatched TargetKind = iota
	SingleKey
	CompositeKeys
)

func (k TargetKind) String() string {
	switch k {
	case SingleKey:
		return "single"
	case CompositeKeys:
		return "composite"
	default:
		return "unmatched"
	}
}

// Target is what a label maps to: nothing, one profile key, or several keys joined by spaces.
type Target struct {
	Kind TargetKind
	Keys []string
}

// NewUnmatched returns the unmatched target.
func NewUnmatched() Target { return Target{Kind: Unmatched} }

// NewSingleKey returns a single key target.
func NewSingleKey(key string) Target { return Target{Kind: SingleKey, Keys: []string{key}} }

// NewCompositeKeys returns a composite target.
func NewCompositeKeys(keys ...string) Target { return Target{Kind: CompositeKeys, Keys: keys} }

// ParseTarget interprets a model value: NOMATCH, blank or null is unmatched, a comma makes a
// composite of the trimmed non-empty parts, anything else is a single key.
func ParseTarget(s string) Target {
	s = strings.TrimSpace(s)
	if s == "" || s == NoMatch {
		return NewUnmatched()
	}

	if !strings.Contains(s, ",") {
		return NewSingleKey(s)
	}

	var keys []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}

	if len(keys) == 0 {
		return NewUnmatched()
	}

	return NewCompositeKeys(keys...)
}

// Matched reports whether the target references at least one key.
func (t Target) Matched() bool {
	return t.Kind != Unmatched && len(t.Keys) > 0
}

// String renders the target the way the model writes it.
func (t Target) String() string {
	if !t.Matched() {
		return NoMatch
	}
	return strings.Join(t.Keys, ", ")
}

func (t Target) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Target) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = NewUnmatched()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*t = ParseTarget(s)
	return nil
}

// Entry is one label and its target.
type Entry struct {
	Label  string `json:"label"`
	Target Target `json:"target"`
}

// FieldMapping is an ordered label to target mapping. It serializes as a JSON object in order.
type FieldMapping []Entry

// Get returns the target of label.
func (m FieldMapping) Get(label string) (Target, bool) {
	for _, e := range m {
		if e.Label == label {
			return e.Target, true
		}
	}
	return Target{}, false
}

// Labels returns the mapped labels in order.
func (m FieldMapping) Labels() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.Label
	}
	return out
}

// Matched counts entries with a matched target.
func (m FieldMapping) Matched() int {
	n := 0
	for _, e := range m {
		if e.Target.Matched() {
			n++
		}
	}
	return n
}

// set replaces the target of an existing label in place or appends a new entry.
func (m FieldMapping) set(label string, t Target) FieldMapping {
	for i := range m {
		if m[i].Label == label {
			m[i].Target = t
			return m
		}
	}
	return append(m, Entry{Label: label, Target: t})
}

func (m FieldMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(e.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Target)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	parsed, err := decodeOrdered(data)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
