package extraction

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/a3tai/mcp-form-filler/internal/pdf/textlayer"
	"github.com/a3tai/mcp-form-filler/internal/unstructured"
)

// CategoryTextLayerLine tags lines produced by the plain text layer fallback.
const CategoryTextLayerLine = "text_layer_line"

// Strategy is one rung of the label extraction ladder.
type Strategy interface {
	Name() string
	// Extract returns raw elements; an error or an empty result moves the ladder on.
	Extract(ctx context.Context, path string) ([]TextElement, error)
	// Filter turns raw elements into candidate labels.
	Filter(raw []TextElement) []TextElement
}

// Partitioner is implemented by the unstructured.io client.
type Partitioner interface {
	PartitionFile(ctx context.Context, path string, strategy unstructured.Strategy) ([]unstructured.Element, error)
}

// PartitionStrategy runs one unstructured.io partitioning strategy.
type PartitionStrategy struct {
	client   Partitioner
	strategy unstructured.Strategy
}

// NewPartitionStrategy creates a ladder rung backed by the partition API
func NewPartitionStrategy(client Partitioner, strategy unstructured.Strategy) *PartitionStrategy {
	return &PartitionStrategy{
		client:   client,
		strategy: strategy,
	}
}

func (s *PartitionStrategy) Name() string {
	return string(s.strategy)
}

func (s *PartitionStrategy) Extract(ctx context.Context, path string) ([]TextElement, error) {
	elements, err := s.client.PartitionFile(ctx, path, s.strategy)
	if err != nil {
		return nil, fmt.Errorf("partition %s: %w", s.strategy, err)
	}

	out := make([]TextElement, 0, len(elements))
	for _, e := range elements {
		out = append(out, TextElement{Text: e.Text, Category: e.Type})
	}

	return out, nil
}

func (s *PartitionStrategy) Filter(raw []TextElement) []TextElement {
	return FilterLabels(raw)
}

// TextLayerStrategy splits the embedded text layer into lines. It performs no OCR.
type TextLayerStrategy struct {
	reader *textlayer.Reader
}

// NewTextLayerStrategy creates the plain text fallback rung
func NewTextLayerStrategy(reader *textlayer.Reader) *TextLayerStrategy {
	return &TextLayerStrategy{reader: reader}
}

func (s *TextLayerStrategy) Name() string {
	return "text_layer"
}

func (s *TextLayerStrategy) Extract(ctx context.Context, path string) ([]TextElement, error) {
	lines, err := s.reader.Lines(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("text layer: %w", err)
	}

	var out []TextElement
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if n > minLabelLength && n < maxLabelLength {
			out = append(out, TextElement{Text: line, Category: CategoryTextLayerLine})
		}
	}

	return out, nil
}

// Filter keeps text layer lines as they are; Extract already bounded their length.
func (s *TextLayerStrategy) Filter(raw []TextElement) []TextElement {
	return raw
}

// DefaultStrategies returns the standard ladder: layout-aware OCR, OCR only, text layer.
func DefaultStrategies(client Partitioner, reader *textlayer.Reader) []Strategy {
	var strategies []Strategy

	if client != nil {
		strategies = append(strategies,
			NewPartitionStrategy(client, unstructured.StrategyHiRes),
			NewPartitionStrategy(client, unstructured.StrategyOCROnly),
		)
	}

	return append(strategies, NewTextLayerStrategy(reader))
}
