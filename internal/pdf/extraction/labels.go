package extraction

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/a3tai/mcp-form-filler/internal/pdf/inspect"
)

const (
	minLabelLength      = 1
	maxLabelLength      = 100
	maxCategoryLabelLen = 60
)

var labelCategories = map[string]bool{
	"Title":    true,
	"ListItem": true,
	"Header":   true,
	"Footer":   true,
	"Address":  true,
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NormalizeText collapses newlines to single spaces and trims the result.
func NormalizeText(s string) string {
	return strings.TrimSpace(newlines.Replace(strings.TrimSpace(s)))
}

// IsLabel reports whether a normalized span looks like a form label: short, and either
// colon-terminated or tagged with a label-like structural category.
func IsLabel(text, category string) bool {
	n := utf8.RuneCountInString(text)
	if n <= minLabelLength || n >= maxLabelLength {
		return false
	}

	if strings.HasSuffix(text, ":") {
		return true
	}

	return labelCategories[category] && n < maxCategoryLabelLen
}

// FilterLabels normalizes each element and keeps those passing IsLabel.
func FilterLabels(raw []TextElement) []TextElement {
	var out []TextElement
	for _, e := range raw {
		text := NormalizeText(e.Text)
		if IsLabel(text, e.Category) {
			out = append(out, TextElement{Text: text, Category: e.Category})
		}
	}
	return out
}

// Dedup removes elements whose text was already seen; the first occurrence wins.
func Dedup(elements []TextElement) []TextElement {
	seen := make(map[string]bool, len(elements))
	out := make([]TextElement, 0, len(elements))

	for _, e := range elements {
		if seen[e.Text] {
			continue
		}
		seen[e.Text] = true
		out = append(out, e)
	}

	return out
}

// Inspector is the subset of the PDF inspector the label extractor depends on.
type Inspector interface {
	Inspect(ctx context.Context, path string) inspect.Properties
}

// Attempt records the outcome of one strategy run.
type Attempt struct {
	Strategy string `json:"strategy"`
	Raw      int    `json:"raw"`
	Error    string `json:"error,omitempty"`
}

// LabelResult is the outcome of a full ladder run.
type LabelResult struct {
	Elements []TextElement `json:"elements"`
	Strategy string        `json:"strategy,omitempty"`
	Attempts []Attempt     `json:"attempts"`
	Aborted  string        `json:"aborted,omitempty"`
}

// LabelExtractor runs the strategy ladder for documents without structured fields.
type LabelExtractor struct {
	inspector  Inspector
	strategies []Strategy
	timeout    time.Duration
}

// NewLabelExtractor creates a label extractor trying strategies in the given order.
// A zero timeout leaves each strategy bounded only by the caller's context.
func NewLabelExtractor(inspector Inspector, timeout time.Duration, strategies ...Strategy) *LabelExtractor {
	return &LabelExtractor{
		inspector:  inspector,
		strategies: strategies,
		timeout:    timeout,
	}
}

// ExtractLabels returns the deduplicated candidate labels of path, or an empty result.
func (le *LabelExtractor) ExtractLabels(ctx context.Context, path string) []TextElement {
	return le.Run(ctx, path).Elements
}

// Run executes the ladder and reports which strategy produced the result.
func (le *LabelExtractor) Run(ctx context.Context, path string) LabelResult {
	logCtx := slog.With("component", "label_extractor", "path", path)
	result := LabelResult{Elements: []TextElement{}}

	props := le.inspector.Inspect(ctx, path)
	if props.IsLikelyCorrupted || props.IsEncrypted {
		result.Aborted = "document is corrupted or encrypted"
		if props.Error != "" {
			result.Aborted += ": " + props.Error
		}
		logCtx.Error("Aborting label extraction", "encrypted", props.IsEncrypted, "corrupted", props.IsLikelyCorrupted)
		return result
	}

	for _, s := range le.strategies {
		if err := ctx.Err(); err != nil {
			result.Aborted = err.Error()
			return result
		}

		attempt := Attempt{Strategy: s.Name()}
		raw, err := le.runStrategy(ctx, s, path)
		if err != nil {
			attempt.Error = err.Error()
			result.Attempts = append(result.Attempts, attempt)
			logCtx.Warn("Strategy failed, trying next", "strategy", s.Name(), "error", err)
			continue
		}

		attempt.Raw = len(raw)
		result.Attempts = append(result.Attempts, attempt)

		if len(raw) == 0 {
			if !props.HasTextLayer {
				logCtx.Warn("Strategy found nothing on a document without a text layer; OCR may have failed",
					"strategy", s.Name())
			} else {
				logCtx.Info("Strategy found nothing, trying next", "strategy", s.Name())
			}
			continue
		}

		labels := Dedup(s.Filter(raw))
		if len(labels) == 0 {
			logCtx.Warn("All extracted elements were filtered out by label heuristics",
				"strategy", s.Name(), "raw", len(raw))
		}

		result.Elements = labels
		result.Strategy = s.Name()
		logCtx.Info("Label extraction succeeded", "strategy", s.Name(), "raw", len(raw), "labels", len(labels))
		return result
	}

	logCtx.Warn("No strategy produced any text")
	return result
}

func (le *LabelExtractor) runStrategy(ctx context.Context, s Strategy, path string) ([]TextElement, error) {
	if le.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, le.timeout)
		defer cancel()
	}

	raw, err := s.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	out := raw[:0:0]
	for _, e := range raw {
		if strings.TrimSpace(e.Text) != "" {
			out = append(out, e)
		}
	}

	return out, nil
}
