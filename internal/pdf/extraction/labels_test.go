package extraction

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/pdf/inspect"
	"github.com/a3tai/mcp-form-filler/internal/pdf/pdftest"
	"github.com/a3tai/mcp-form-filler/internal/pdf/textlayer"
	"github.com/a3tai/mcp-form-filler/internal/unstructured"
)

type fakeInspector struct {
	props inspect.Properties
}

func (f fakeInspector) Inspect(_ context.Context, path string) inspect.Properties {
	p := f.props
	p.Path = path
	return p
}

type fakeStrategy struct {
	name     string
	elements []TextElement
	err      error
	calls    int
	block    bool
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Extract(ctx context.Context, _ string) ([]TextElement, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.elements, f.err
}

func (f *fakeStrategy) Filter(raw []TextElement) []TextElement {
	return FilterLabels(raw)
}

type fakePartitioner struct {
	byStrategy map[unstructured.Strategy][]unstructured.Element
	err        error
	seen       []unstructured.Strategy
}

func (f *fakePartitioner) PartitionFile(_ context.Context, _ string, s unstructured.Strategy) ([]unstructured.Element, error) {
	f.seen = append(f.seen, s)
	if f.err != nil {
		return nil, f.err
	}
	return f.byStrategy[s], nil
}

func TestIsLabel(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		expected bool
	}{
		{"colon terminated", "Name:", "UncategorizedText", true},
		{"colon narrative", "Date of birth:", "NarrativeText", true},
		{"title", "Personal Information", "Title", true},
		{"list item", "Passport number", "ListItem", true},
		{"header", "Section A", "Header", true},
		{"footer", "Page 1", "Footer", true},
		{"address", "1 Main Street", "Address", true},
		{"narrative without colon", "Please complete all fields", "NarrativeText", false},
		{"uncategorized without colon", "Signature", "UncategorizedText", false},
		{"single character", ":", "Title", false},
		{"single letter title", "A", "Title", false},
		{"title at 60 chars", strings.Repeat("a", 60), "Title", false},
		{"title at 59 chars", strings.Repeat("a", 59), "Title", true},
		{"colon at 99 chars", strings.Repeat("a", 98) + ":", "NarrativeText", true},
		{"colon at 100 chars", strings.Repeat("a", 99) + ":", "NarrativeText", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLabel(tt.text, tt.category))
		})
	}
}

func TestFilterLabelsNormalizesNewlines(t *testing.T) {
	raw := []TextElement{
		{Text: "  First\nname:  ", Category: "NarrativeText"},
		{Text: "Long narrative paragraph that explains how to fill in the form", Category: "NarrativeText"},
		{Text: "Contact\r\nDetails", Category: "Title"},
	}

	got := FilterLabels(raw)

	assert.Equal(t, []TextElement{
		{Text: "First name:", Category: "NarrativeText"},
		{Text: "Contact Details", Category: "Title"},
	}, got)
}

func TestDedupKeepsFirstCategory(t *testing.T) {
	in := []TextElement{
		{Text: "Name:", Category: "c1"},
		{Text: "Name:", Category: "c2"},
		{Text: "Address", Category: "c3"},
	}

	got := Dedup(in)

	require.Len(t, got, 2)
	assert.Equal(t, TextElement{Text: "Name:", Category: "c1"}, got[0])
	assert.Equal(t, TextElement{Text: "Address", Category: "c3"}, got[1])
}

func TestLabelExtractor_AbortsOnEncrypted(t *testing.T) {
	tests := []struct {
		name  string
		props inspect.Properties
	}{
		{"encrypted", inspect.Properties{IsEncrypted: true, NeedsPassword: true}},
		{"corrupted", inspect.Properties{IsLikelyCorrupted: true, Error: "failed to read PDF context"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeStrategy{name: "hi_res", elements: []TextElement{{Text: "Name:", Category: "Title"}}}
			le := NewLabelExtractor(fakeInspector{props: tt.props}, 0, s)

			result := le.Run(context.Background(), "/tmp/form.pdf")

			assert.Empty(t, result.Elements)
			assert.NotNil(t, result.Elements)
			assert.NotEmpty(t, result.Aborted)
			assert.Equal(t, 0, s.calls)
		})
	}
}

func TestLabelExtractor_EncryptedDocument(t *testing.T) {
	dir := t.TempDir()
	plain := pdftest.WriteFile(t, dir, "plain.pdf", pdftest.Document{
		Lines: []string{"Applicant details", "First name:"},
	})
	encrypted := filepath.Join(dir, "encrypted.pdf")
	require.NoError(t, api.EncryptFile(plain, encrypted, model.NewAESConfiguration("user-secret", "owner-secret", 256)))

	s := &fakeStrategy{name: "hi_res", elements: []TextElement{{Text: "Name:", Category: "Title"}}}
	le := NewLabelExtractor(inspect.NewInspector(1<<20), time.Second, s)

	result := le.Run(context.Background(), encrypted)

	assert.Empty(t, result.Elements)
	assert.NotEmpty(t, result.Aborted)
	assert.Empty(t, result.Attempts)
	assert.Equal(t, 0, s.calls)
	assert.Empty(t, le.ExtractLabels(context.Background(), encrypted))
}

func TestLabelExtractor_Ladder(t *testing.T) {
	labels := []TextElement{
		{Text: "Name:", Category: "UncategorizedText"},
		{Text: "Name:", Category: "Title"},
		{Text: "This is a paragraph of narrative text.", Category: "NarrativeText"},
		{Text: "Applicant", Category: "Title"},
	}

	tests := []struct {
		name             string
		first            *fakeStrategy
		second           *fakeStrategy
		expectedStrategy string
		expectedTexts    []string
		secondCalls      int
	}{
		{
			name:             "first strategy succeeds",
			first:            &fakeStrategy{name: "hi_res", elements: labels},
			second:           &fakeStrategy{name: "ocr_only"},
			expectedStrategy: "hi_res",
			expectedTexts:    []string{"Name:", "Applicant"},
			secondCalls:      0,
		},
		{
			name:             "first strategy fails",
			first:            &fakeStrategy{name: "hi_res", err: errors.New("boom")},
			second:           &fakeStrategy{name: "ocr_only", elements: labels},
			expectedStrategy: "ocr_only",
			expectedTexts:    []string{"Name:", "Applicant"},
			secondCalls:      1,
		},
		{
			name:             "first strategy empty",
			first:            &fakeStrategy{name: "hi_res", elements: []TextElement{{Text: "  ", Category: "Title"}}},
			second:           &fakeStrategy{name: "ocr_only", elements: labels},
			expectedStrategy: "ocr_only",
			expectedTexts:    []string{"Name:", "Applicant"},
			secondCalls:      1,
		},
		{
			name: "everything filtered stops the ladder",
			first: &fakeStrategy{name: "hi_res", elements: []TextElement{
				{Text: "Only narrative prose here", Category: "NarrativeText"},
			}},
			second:           &fakeStrategy{name: "ocr_only", elements: labels},
			expectedStrategy: "hi_res",
			expectedTexts:    []string{},
			secondCalls:      0,
		},
		{
			name:             "nothing anywhere",
			first:            &fakeStrategy{name: "hi_res"},
			second:           &fakeStrategy{name: "ocr_only", err: errors.New("ocr missing")},
			expectedStrategy: "",
			expectedTexts:    []string{},
			secondCalls:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := NewLabelExtractor(fakeInspector{props: inspect.Properties{HasTextLayer: true}}, time.Second, tt.first, tt.second)

			result := le.Run(context.Background(), "/tmp/form.pdf")

			assert.Equal(t, tt.expectedStrategy, result.Strategy)
			assert.Equal(t, tt.expectedTexts, Texts(result.Elements))
			assert.Equal(t, 1, tt.first.calls)
			assert.Equal(t, tt.secondCalls, tt.second.calls)
		})
	}
}

func TestLabelExtractor_StrategyTimeout(t *testing.T) {
	slow := &fakeStrategy{name: "hi_res", block: true}
	fallback := &fakeStrategy{name: "text_layer", elements: []TextElement{{Text: "Name:", Category: CategoryTextLayerLine}}}

	le := NewLabelExtractor(fakeInspector{}, 20*time.Millisecond, slow, fallback)
	result := le.Run(context.Background(), "/tmp/form.pdf")

	assert.Equal(t, "text_layer", result.Strategy)
	require.Len(t, result.Attempts, 2)
	assert.Contains(t, result.Attempts[0].Error, "deadline")
}

func TestDefaultStrategies_PartitionThenTextLayer(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "scan.pdf", pdftest.Document{
		Lines: []string{"Applicant details", "First name:", "Date of birth:"},
	})

	partitioner := &fakePartitioner{err: errors.New("service unavailable")}
	reader := textlayer.NewReader()
	insp := inspect.NewInspector(1 << 20)

	le := NewLabelExtractor(insp, time.Second, DefaultStrategies(partitioner, reader)...)
	result := le.Run(context.Background(), path)

	assert.Equal(t, []unstructured.Strategy{unstructured.StrategyHiRes, unstructured.StrategyOCROnly}, partitioner.seen)
	assert.Equal(t, "text_layer", result.Strategy)
	require.NotEmpty(t, result.Elements)
	for _, e := range result.Elements {
		assert.Equal(t, CategoryTextLayerLine, e.Category)
	}
	assert.Contains(t, strings.Join(Texts(result.Elements), " "), "Applicant details")
}

func TestPartitionStrategy_MapsCategories(t *testing.T) {
	partitioner := &fakePartitioner{byStrategy: map[unstructured.Strategy][]unstructured.Element{
		unstructured.StrategyHiRes: {
			{Type: "Title", Text: "Visa Application"},
			{Type: "NarrativeText", Text: "Passport number:"},
			{Type: "NarrativeText", Text: "Read the instructions carefully before you start."},
		},
	}}

	s := NewPartitionStrategy(partitioner, unstructured.StrategyHiRes)
	raw, err := s.Extract(context.Background(), "/tmp/visa.pdf")
	require.NoError(t, err)
	require.Len(t, raw, 3)

	assert.Equal(t, "hi_res", s.Name())
	assert.Equal(t, []TextElement{
		{Text: "Visa Application", Category: "Title"},
		{Text: "Passport number:", Category: "NarrativeText"},
	}, s.Filter(raw))
}

func TestDefaultStrategies_WithoutClient(t *testing.T) {
	strategies := DefaultStrategies(nil, textlayer.NewReader())
	require.Len(t, strategies, 1)
	assert.Equal(t, "text_layer", strategies[0].Name())
}
