package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-form-filler/internal/intelligence"
	"github.com/a3tai/mcp-form-filler/internal/mapping"
	pdferrors "github.com/a3tai/mcp-form-filler/internal/pdf/errors"
	"github.com/a3tai/mcp-form-filler/internal/pdf/extraction"
	"github.com/a3tai/mcp-form-filler/internal/pdf/inspect"
)

type Inspector interface {
	Inspect(ctx context.Context, path string) inspect.Properties
}

type FieldExtractor interface {
	ExtractFields(ctx context.Context, path string) ([]extraction.FormField, error)
}

type LabelExtractor interface {
	Run(ctx context.Context, path string) extraction.LabelResult
}

type FieldMapper interface {
	MapFields(ctx context.Context, labels, profileKeys []string, hint string) mapping.Result
}

// KindClassifier suggests a form kind from the mapping labels.
type KindClassifier interface {
	Classify(ctx context.Context, labels []string) (intelligence.Classification, error)
}

type FormFiller interface {
	FillFile(ctx context.Context, input, output string, plan map[string]string) error
}

// Pipeline runs the stages of a form analysis.
type Pipeline struct {
	inspector  Inspector
	fields     FieldExtractor
	labels     LabelExtractor
	mapper     FieldMapper
	filler     FormFiller
	classifier KindClassifier
	outDir     string
}

// NewPipeline creates a pipeline writing its outputs to outDir.
func NewPipeline(inspector Inspector, fields FieldExtractor, labels LabelExtractor, mapper FieldMapper,
	filler FormFiller, outDir string,
) *Pipeline {
	return &Pipeline{
		inspector: inspector,
		fields:    fields,
		labels:    labels,
		mapper:    mapper,
		filler:    filler,
		outDir:    outDir,
	}
}

// WithClassifier enables form kind detection for sessions that request it.
func (p *Pipeline) WithClassifier(c KindClassifier) *Pipeline {
	p.classifier = c
	return p
}

// FilledName is the output file name of a filled copy of path.
func FilledName(path string) string {
	return "filled_" + filepath.Base(path)
}

// ExportName is the file name of the mapping export of path.
func ExportName(path string) string {
	return "mappings_" + filepath.Base(path) + ".txt"
}

// Analyze inspects the document and extracts fields, falling back to labels when it has none.
func (p *Pipeline) Analyze(ctx context.Context, s Session) Session {
	logCtx := slog.With("component", "pipeline", "session", s.ID, "path", s.Path)

	s = s.resetMapping()
	s.Fields, s.Labels, s.LabelStrategy, s.Attempts = nil, nil, "", nil

	s.Properties = p.inspector.Inspect(ctx, s.Path)
	if !s.Properties.Processable() {
		s.Mode = ModeInvalid
		s.Message = invalidMessage(s.Properties)
		logCtx.Warn("Document cannot be processed", "reason", s.Message)
		return s
	}

	fields, err := p.fields.ExtractFields(ctx, s.Path)
	if err != nil {
		logCtx.Warn("Structured field extraction failed", "error", err)
	}

	if len(fields) > 0 {
		s.Mode = ModeAcroForm
		s.Fields = fields
		s.Message = fmt.Sprintf("found %d form fields", len(fields))
		logCtx.Info("AcroForm detected", "fields", len(fields))
		return s
	}

	result := p.labels.Run(ctx, s.Path)
	s.Mode = ModeUnstructured
	s.Labels = result.Elements
	s.LabelStrategy = result.Strategy
	s.Attempts = result.Attempts

	switch {
	case result.Aborted != "":
		s.Message = "label extraction aborted: " + result.Aborted
	case len(result.Elements) == 0:
		s.Message = describeEmpty(result)
	default:
		s.Message = fmt.Sprintf("found %d labels with strategy %s", len(result.Elements), result.Strategy)
	}

	logCtx.Info("Unstructured document analyzed", "labels", len(s.Labels), "strategy", s.LabelStrategy)
	return s
}

// Map asks the mapper for a mapping and resolves it against the session profile.
func (p *Pipeline) Map(ctx context.Context, s Session) Session {
	s = s.resetMapping()
	s = p.detectKind(ctx, s)

	result := p.mapper.MapFields(ctx, s.MappingLabels(), s.Profile.Keys(), s.Hint)
	s.Mapping = &result

	if result.OK() {
		s.Plan = mapping.Resolve(result.Mapping, s.Profile)
	}

	return s
}

func (p *Pipeline) detectKind(ctx context.Context, s Session) Session {
	if !s.DetectKind || s.Hint != "" || p.classifier == nil {
		return s
	}

	c, err := p.classifier.Classify(ctx, s.MappingLabels())
	if err != nil {
		slog.Warn("Form kind detection failed", "component", "pipeline", "path", s.Path, "error", err)
		return s
	}

	s.DetectedKind = string(c.Kind)
	s.Hint = mapping.Hint(c.Kind, "")
	return s
}

// Complete writes the session output: a filled PDF for AcroForms, a mapping export otherwise.
func (p *Pipeline) Complete(ctx context.Context, s Session) (Session, error) {
	if !s.Mapped() {
		return s, pdferrors.New(pdferrors.ErrorTypeMapperUnavailable, "complete", "session has no usable mapping").
			WithFile(s.Path)
	}

	switch s.Mode {
	case ModeAcroForm:
		out := filepath.Join(p.outDir, FilledName(s.Path))
		if err := p.filler.FillFile(ctx, s.Path, out, s.Plan); err != nil {
			return s, err
		}
		s.FilledPath = out

	case ModeUnstructured:
		out := filepath.Join(p.outDir, ExportName(s.Path))
		if err := mapping.ExportTextFile(out, s.Mapping.Mapping, s.Plan); err != nil {
			return s, pdferrors.Wrap(pdferrors.ErrorTypeFillFailure, "export", err).WithFile(out)
		}
		s.ExportPath = out

	default:
		return s, pdferrors.New(pdferrors.ErrorTypeInputInvalid, "complete", s.Message).WithFile(s.Path)
	}

	return s, nil
}

// Run performs every stage. A session that cannot be processed or mapped is returned with an error
// describing the stage that stopped it.
func (p *Pipeline) Run(ctx context.Context, s Session) (Session, error) {
	s = p.Analyze(ctx, s)

	switch {
	case s.Mode == ModeInvalid:
		return s, pdferrors.New(pdferrors.ErrorTypeInputInvalid, "analyze", s.Message).WithFile(s.Path)
	case len(s.MappingLabels()) == 0:
		return s, pdferrors.New(pdferrors.ErrorTypeExtractionEmpty, "analyze", s.Message).
			WithFile(s.Path).WithStrategy(s.LabelStrategy)
	}

	s = p.Map(ctx, s)
	if !s.Mapped() {
		msg := s.Mapping.Error
		if msg == "" {
			msg = s.Mapping.Info
		}
		return s, pdferrors.New(pdferrors.ErrorTypeMapperUnavailable, "map", msg).WithFile(s.Path)
	}

	return p.Complete(ctx, s)
}

func invalidMessage(props inspect.Properties) string {
	var reasons []string
	if props.NeedsPassword {
		reasons = append(reasons, "document is password protected")
	} else if props.IsEncrypted {
		reasons = append(reasons, "document is encrypted")
	}
	if props.IsLikelyCorrupted {
		reasons = append(reasons, "document appears corrupted or is not a PDF")
	}
	if props.Error != "" {
		reasons = append(reasons, props.Error)
	}
	if len(reasons) == 0 {
		return "document cannot be processed"
	}
	return strings.Join(reasons, "; ")
}

func describeEmpty(result extraction.LabelResult) string {
	if result.Strategy != "" {
		return fmt.Sprintf("strategy %s found text but no labels", result.Strategy)
	}

	tried := make([]string, 0, len(result.Attempts))
	for _, a := range result.Attempts {
		tried = append(tried, a.Strategy)
	}

	return "no text found; tried " + strings.Join(tried, ", ")
}
