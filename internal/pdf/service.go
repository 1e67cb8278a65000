package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/a3tai/mcp-form-filler/internal/intelligence"
	"github.com/a3tai/mcp-form-filler/internal/llm"
	"github.com/a3tai/mcp-form-filler/internal/mapping"
	"github.com/a3tai/mcp-form-filler/internal/pdf/extraction"
	"github.com/a3tai/mcp-form-filler/internal/pdf/fill"
	"github.com/a3tai/mcp-form-filler/internal/pdf/inspect"
	"github.com/a3tai/mcp-form-filler/internal/pdf/security"
	"github.com/a3tai/mcp-form-filler/internal/pdf/textlayer"
	"github.com/a3tai/mcp-form-filler/internal/profile"
	"github.com/a3tai/mcp-form-filler/internal/session"
)

// Options configures a Service.
type Options struct {
	MaxFileSize     int64
	Directory       string
	OutputDirectory string

	// Completer is nil when no LLM credential is configured.
	Completer llm.Completer
	MaxLabels int

	// Partitioner is nil when no partition API is configured; only the text layer is used then.
	Partitioner     extraction.Partitioner
	StrategyTimeout time.Duration

	// ClassifierRules is an optional YAML file with extra form kind rules.
	ClassifierRules string
}

// Service handles form operations by orchestrating the pipeline components
type Service struct {
	maxFileSize    int64
	outputDir      string
	inspector      *inspect.Inspector
	fieldExtractor *extraction.FieldExtractor
	labelExtractor *extraction.LabelExtractor
	strategies     []extraction.Strategy
	mapper         *mapping.Mapper
	mapperReady    bool
	filler         *fill.Filler
	search         *Search
	pipeline       *session.Pipeline
	pathValidator  *security.PathValidator
	outputGuard    *security.PathValidator
}

// NewService creates a new form service with all components
func NewService(opts Options) (*Service, error) {
	pathValidator, err := security.NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	outputDir := opts.OutputDirectory
	if outputDir == "" {
		outputDir = filepath.Join(opts.Directory, "filled")
	}

	outputGuard, err := security.NewPathValidator(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create output validator: %w", err)
	}

	classifierConfig := intelligence.DefaultClassificationConfig()
	classifierConfig.CustomRulesPath = opts.ClassifierRules
	classifier, err := intelligence.NewFormClassifierWithConfig(classifierConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create form classifier: %w", err)
	}

	inspector := inspect.NewInspector(opts.MaxFileSize)

	strategies := extraction.DefaultStrategies(opts.Partitioner, textlayer.NewReader())

	s := &Service{
		maxFileSize:    opts.MaxFileSize,
		outputDir:      outputDir,
		inspector:      inspector,
		fieldExtractor: extraction.NewFieldExtractor(),
		labelExtractor: extraction.NewLabelExtractor(inspector, opts.StrategyTimeout, strategies...),
		strategies:     strategies,
		mapper:         mapping.NewMapper(opts.Completer, opts.MaxLabels),
		mapperReady:    opts.Completer != nil,
		filler:         fill.NewFiller(),
		search:         NewSearch(opts.MaxFileSize),
		pathValidator:  pathValidator,
		outputGuard:    outputGuard,
	}

	s.pipeline = session.NewPipeline(s.inspector, s.fieldExtractor, s.labelExtractor, s.mapper, s.filler, outputDir).
		WithClassifier(classifier)

	return s, nil
}

func (s *Service) validate(path string) error {
	if err := s.pathValidator.ValidatePath(path); err != nil {
		return fmt.Errorf("security validation failed: %w", err)
	}
	return nil
}

// FormInspect reports the properties of a PDF
func (s *Service) FormInspect(ctx context.Context, req FormInspectRequest) (*inspect.Properties, error) {
	if err := s.validate(req.Path); err != nil {
		return nil, err
	}
	props := s.inspector.Inspect(ctx, req.Path)
	return &props, nil
}

// FormExtractFields lists the AcroForm fields of a PDF
func (s *Service) FormExtractFields(ctx context.Context, req FormFieldsRequest) (*FormFieldsResult, error) {
	if err := s.validate(req.Path); err != nil {
		return nil, err
	}

	fields, err := s.fieldExtractor.ExtractFields(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = []extraction.FormField{}
	}

	return &FormFieldsResult{Path: req.Path, Fields: fields, Count: len(fields)}, nil
}

// FormExtractLabels runs the label extraction ladder on a PDF
func (s *Service) FormExtractLabels(ctx context.Context, req FormLabelsRequest) (*FormLabelsResult, error) {
	if err := s.validate(req.Path); err != nil {
		return nil, err
	}

	return &FormLabelsResult{Path: req.Path, LabelResult: s.labelExtractor.Run(ctx, req.Path)}, nil
}

// FormMapFields asks the LLM to map labels onto profile keys
func (s *Service) FormMapFields(ctx context.Context, req FormMapRequest) mapping.Result {
	hint := mapping.Hint(mapping.FormKind(req.FormKind), req.Context)
	return s.mapper.MapFields(ctx, req.Labels, req.ProfileKeys, hint)
}

// FormResolve computes the values a mapping would write for a profile
func (s *Service) FormResolve(req FormResolveRequest) *FormResolveResult {
	plan := mapping.ResolveAny(req.Mapping, req.Profile)

	result := &FormResolveResult{Plan: plan}
	if m, ok := req.Mapping.(mapping.FieldMapping); ok {
		result.Text = mapping.ExportText(m, plan)
	}

	return result
}

// FormFill writes a filled copy of an AcroForm into the output directory
func (s *Service) FormFill(ctx context.Context, req FormFillRequest) (*FormFillResult, error) {
	if err := s.validate(req.Path); err != nil {
		return nil, err
	}

	output := req.Output
	if output == "" {
		output = filepath.Join(s.outputDir, session.FilledName(req.Path))
	} else if !filepath.IsAbs(output) {
		output = filepath.Join(s.outputDir, output)
	}

	if err := s.outputGuard.ValidateOutput(output); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &FormFillResult{Path: req.Path, Output: output, Fields: len(req.Plan)}
	if err := s.filler.FillFile(ctx, req.Path, output, req.Plan); err != nil {
		result.Error = err.Error()
		return result, nil
	}

	result.Success = true
	return result, nil
}

// FormAnalyze runs inspection, extraction, mapping and, unless MapOnly is set, writes the output
func (s *Service) FormAnalyze(ctx context.Context, req FormAnalyzeRequest) (*session.Session, error) {
	if err := s.validate(req.Path); err != nil {
		return nil, err
	}

	p := req.Profile
	if req.ProfilePath != "" {
		loaded, err := s.LoadProfile(req.ProfilePath)
		if err != nil {
			return nil, err
		}
		p = loaded
	}

	hint := mapping.Hint(mapping.FormKind(req.FormKind), req.Context)
	sess := session.New(req.Path, p, hint)
	sess.DetectKind = req.DetectKind

	if req.MapOnly {
		sess = s.pipeline.Analyze(ctx, sess)
		if sess.Mode == session.ModeInvalid || len(sess.MappingLabels()) == 0 {
			return &sess, nil
		}
		sess = s.pipeline.Map(ctx, sess)
		return &sess, nil
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	sess, err := s.pipeline.Run(ctx, sess)
	if err != nil {
		// the session still carries the diagnostics of the stage that stopped
		sess.Message = err.Error()
	}

	return &sess, nil
}

// LoadProfile reads a JSON or YAML profile inside the configured directory
func (s *Service) LoadProfile(path string) (profile.Profile, error) {
	if err := s.validate(path); err != nil {
		return nil, err
	}
	return profile.Load(path)
}

// FormList lists PDF forms below the configured directory
func (s *Service) FormList(req FormListRequest) (*FormListResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	}

	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	return s.search.ListForms(req)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// OutputDirectory returns where filled forms and exports are written
func (s *Service) OutputDirectory() string {
	return s.outputDir
}

// MapperReady reports whether an LLM credential was configured
func (s *Service) MapperReady() bool {
	return s.mapperReady
}

// LabelStrategies returns the label extraction ladder in order
func (s *Service) LabelStrategies() []string {
	names := make([]string, len(s.strategies))
	for i, st := range s.strategies {
		names[i] = st.Name()
	}
	return names
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}

	if s.maxFileSize > 1024*1024*1024 {
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}

	return nil
}
