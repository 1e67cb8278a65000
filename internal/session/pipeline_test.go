package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/intelligence"
	"github.com/a3tai/mcp-form-filler/internal/mapping"
	pdferrors "github.com/a3tai/mcp-form-filler/internal/pdf/errors"
	"github.com/a3tai/mcp-form-filler/internal/pdf/extraction"
	"github.com/a3tai/mcp-form-filler/internal/pdf/inspect"
	"github.com/a3tai/mcp-form-filler/internal/profile"
)

type stubInspector struct{ props inspect.Properties }

func (s stubInspector) Inspect(_ context.Context, path string) inspect.Properties {
	p := s.props
	p.Path = path
	return p
}

type stubFields struct{ fields []extraction.FormField }

func (s stubFields) ExtractFields(context.Context, string) ([]extraction.FormField, error) {
	return s.fields, nil
}

type stubLabels struct {
	result extraction.LabelResult
	calls  int
}

func (s *stubLabels) Run(context.Context, string) extraction.LabelResult {
	s.calls++
	return s.result
}

type stubMapper struct {
	result mapping.Result
	labels []string
	keys   []string
	hint   string
}

func (s *stubMapper) MapFields(_ context.Context, labels, keys []string, hint string) mapping.Result {
	s.labels, s.keys, s.hint = labels, keys, hint
	return s.result
}

type stubFiller struct {
	input, output string
	plan          map[string]string
}

func (s *stubFiller) FillFile(_ context.Context, input, output string, plan map[string]string) error {
	s.input, s.output, s.plan = input, output, plan
	return nil
}

func TestSession_WithProfileResetsMapping(t *testing.T) {
	s := New("/tmp/form.pdf", profile.Profile{"a": "1"}, "")
	require.NotEmpty(t, s.ID)

	s.Mapping = &mapping.Result{}
	s.Plan = mapping.FillPlan{"F": "1"}
	s.FilledPath = "/tmp/out.pdf"

	next := s.WithProfile(profile.Profile{"b": "2"})
	assert.Nil(t, next.Mapping)
	assert.Nil(t, next.Plan)
	assert.Empty(t, next.FilledPath)
	assert.Equal(t, s.ID, next.ID)

	assert.NotNil(t, s.Mapping, "original session must be unchanged")

	hinted := s.WithHint("This is a Invoice.")
	assert.Equal(t, "This is a Invoice.", hinted.Hint)
	assert.Nil(t, hinted.Mapping)
}

func TestPipeline_AcroForm(t *testing.T) {
	out := t.TempDir()
	mapper := &stubMapper{result: mapping.Result{Mapping: mapping.FieldMapping{
		{Label: "first_name", Target: mapping.NewSingleKey("first")},
		{Label: "dob", Target: mapping.NewSingleKey("birth")},
		{Label: "agree", Target: mapping.NewUnmatched()},
	}}}
	filler := &stubFiller{}
	labels := &stubLabels{}

	p := NewPipeline(
		stubInspector{props: inspect.Properties{PageCount: 1, HasTextLayer: true}},
		stubFields{fields: []extraction.FormField{{Name: "first_name"}, {Name: "dob"}, {Name: "agree"}}},
		labels, mapper, filler, out,
	)

	s, err := p.Run(context.Background(), New("/docs/form.pdf", profile.Profile{"first": "Alice", "birth": "1990-01-01"}, "hint"))
	require.NoError(t, err)

	assert.Equal(t, ModeAcroForm, s.Mode)
	assert.Equal(t, 0, labels.calls)
	assert.Equal(t, []string{"first_name", "dob", "agree"}, mapper.labels)
	assert.Equal(t, []string{"birth", "first"}, mapper.keys)
	assert.Equal(t, "hint", mapper.hint)

	assert.Equal(t, mapping.FillPlan{"first_name": "Alice", "dob": "1990-01-01"}, s.Plan)
	assert.Equal(t, filepath.Join(out, "filled_form.pdf"), s.FilledPath)
	assert.Equal(t, "/docs/form.pdf", filler.input)
	assert.Equal(t, map[string]string{"first_name": "Alice", "dob": "1990-01-01"}, filler.plan)
}

func TestPipeline_UnstructuredExport(t *testing.T) {
	out := t.TempDir()
	mapper := &stubMapper{result: mapping.Result{Mapping: mapping.FieldMapping{
		{Label: "Full Name:", Target: mapping.NewCompositeKeys("first", "last")},
	}}}
	filler := &stubFiller{}
	labels := &stubLabels{result: extraction.LabelResult{
		Elements: []extraction.TextElement{{Text: "Full Name:", Category: "NarrativeText"}},
		Strategy: "hi_res",
	}}

	p := NewPipeline(stubInspector{}, stubFields{}, labels, mapper, filler, out)

	s, err := p.Run(context.Background(), New("/docs/scan.pdf", profile.Profile{"first": "Ada", "last": "Lovelace"}, ""))
	require.NoError(t, err)

	assert.Equal(t, ModeUnstructured, s.Mode)
	assert.Equal(t, "hi_res", s.LabelStrategy)
	assert.Empty(t, filler.output, "unstructured documents are never filled")
	assert.Equal(t, filepath.Join(out, "mappings_scan.pdf.txt"), s.ExportPath)

	data, err := os.ReadFile(s.ExportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "LLM Form Filler Mappings:\n\n"))
	assert.Contains(t, string(data), `"Full Name:": "Ada Lovelace"`)
}

func TestPipeline_Stops(t *testing.T) {
	tests := []struct {
		name      string
		inspector stubInspector
		labels    *stubLabels
		mapper    *stubMapper
		errType   pdferrors.ErrorType
		mode      Mode
	}{
		{
			name:      "encrypted",
			inspector: stubInspector{props: inspect.Properties{IsEncrypted: true, NeedsPassword: true}},
			labels:    &stubLabels{},
			mapper:    &stubMapper{},
			errType:   pdferrors.ErrorTypeInputInvalid,
			mode:      ModeInvalid,
		},
		{
			name:      "no labels",
			inspector: stubInspector{},
			labels:    &stubLabels{result: extraction.LabelResult{Attempts: []extraction.Attempt{{Strategy: "text_layer"}}}},
			mapper:    &stubMapper{},
			errType:   pdferrors.ErrorTypeExtractionEmpty,
			mode:      ModeUnstructured,
		},
		{
			name:      "mapper error",
			inspector: stubInspector{},
			labels:    &stubLabels{result: extraction.LabelResult{Elements: []extraction.TextElement{{Text: "Name:"}}}},
			mapper:    &stubMapper{result: mapping.Result{Error: "credential not found"}},
			errType:   pdferrors.ErrorTypeMapperUnavailable,
			mode:      ModeUnstructured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filler := &stubFiller{}
			p := NewPipeline(tt.inspector, stubFields{}, tt.labels, tt.mapper, filler, t.TempDir())

			s, err := p.Run(context.Background(), New("/docs/x.pdf", profile.Profile{"name": "A"}, ""))
			require.Error(t, err)
			assert.True(t, pdferrors.IsType(err, tt.errType), "got %v", err)
			assert.Equal(t, tt.mode, s.Mode)
			assert.NotEmpty(t, s.Message)
			assert.Empty(t, filler.output)
		})
	}
}

func TestPipeline_DetectKind(t *testing.T) {
	labels := &stubLabels{result: extraction.LabelResult{
		Elements: []extraction.TextElement{
			{Text: "Passport number:", Category: "Title"},
			{Text: "Date of issue:", Category: "Title"},
			{Text: "Date of expiry:", Category: "Title"},
			{Text: "Purpose of travel:", Category: "Title"},
		},
		Strategy: "hi_res",
	}}

	tests := []struct {
		name         string
		detect       bool
		hint         string
		expectedHint string
		detected     string
	}{
		{"detection requested", true, "", "This is a Visa Application.", "Visa Application"},
		{"explicit hint wins", true, "The form is related to: travel.", "The form is related to: travel.", ""},
		{"detection off", false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapper := &stubMapper{result: mapping.Result{Info: "no profile keys to map to"}}
			p := NewPipeline(stubInspector{}, stubFields{}, labels, mapper, &stubFiller{}, t.TempDir()).
				WithClassifier(intelligence.NewFormClassifier())

			s := New("/docs/visa.pdf", profile.Profile{"passport": "X1"}, tt.hint)
			s.DetectKind = tt.detect

			s = p.Map(context.Background(), p.Analyze(context.Background(), s))

			assert.Equal(t, tt.expectedHint, mapper.hint)
			assert.Equal(t, tt.detected, s.DetectedKind)
		})
	}
}
