// Package inspect reports the basic properties of a PDF before any extraction runs.
package inspect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-form-filler/internal/pdf/security"
	"github.com/a3tai/mcp-form-filler/internal/pdf/textlayer"
)

// Properties describes a document as found on disk. It is produced once per document.
type Properties struct {
	Path              string            `json:"path"`
	PageCount         int               `json:"page_count"`
	IsEncrypted       bool              `json:"is_encrypted"`
	NeedsPassword     bool              `json:"needs_password"`
	HasTextLayer      bool              `json:"has_text_layer"`
	IsLikelyCorrupted bool              `json:"is_likely_corrupted"`
	Metadata          map[string]string `json:"metadata"`
	Permissions       []string          `json:"permissions,omitempty"`
	Error             string            `json:"error,omitempty"`
}

// Processable reports whether extraction should be attempted at all.
func (p Properties) Processable() bool {
	return !p.IsLikelyCorrupted && !p.IsEncrypted
}

// Inspector opens PDFs read-only and never returns an error: failures are folded into
// the returned Properties.
type Inspector struct {
	maxFileSize int64
	text        *textlayer.Reader
}

// NewInspector creates an inspector rejecting files above maxFileSize bytes
func NewInspector(maxFileSize int64) *Inspector {
	return &Inspector{
		maxFileSize: maxFileSize,
		text:        textlayer.NewReader(),
	}
}

// Inspect reports page count, encryption state, text layer presence and metadata for path.
func (i *Inspector) Inspect(ctx context.Context, path string) Properties {
	logCtx := slog.With("component", "inspector", "path", path)

	props := Properties{
		Path:     path,
		Metadata: map[string]string{},
	}

	if err := i.checkFile(path); err != nil {
		props.IsLikelyCorrupted = true
		props.Error = err.Error()
		logCtx.Warn("PDF rejected before parsing", "error", err)
		return props
	}

	if err := i.readStructure(path, &props); err != nil {
		if isPasswordError(err) {
			props.IsEncrypted = true
			props.NeedsPassword = true
			props.Error = err.Error()
			logCtx.Warn("PDF is password protected", "error", err)
			return props
		}

		props.IsLikelyCorrupted = true
		props.Error = err.Error()
		logCtx.Warn("PDF could not be parsed", "error", err)
		return props
	}

	hasText, err := i.text.HasText(ctx, path)
	switch {
	case err == nil:
		props.HasTextLayer = hasText
	case textlayer.IsPasswordError(err):
		props.NeedsPassword = true
	default:
		logCtx.Debug("Text layer probe failed", "error", err)
	}

	logCtx.Info("Inspected PDF",
		"pages", props.PageCount,
		"encrypted", props.IsEncrypted,
		"needsPassword", props.NeedsPassword,
		"hasTextLayer", props.HasTextLayer,
		"metadataKeys", len(props.Metadata),
	)

	return props
}

// checkFile performs the cheap file-level checks
func (i *Inspector) checkFile(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	if i.maxFileSize > 0 && info.Size() > i.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), i.maxFileSize)
	}

	return nil
}

func (i *Inspector) readStructure(path string, props *Properties) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF parser panic: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(f, conf)
	if err != nil {
		return fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := pdfCtx.EnsurePageCount(); err != nil {
		return fmt.Errorf("failed to ensure page count: %w", err)
	}

	props.PageCount = pdfCtx.PageCount
	props.IsEncrypted = pdfCtx.Encrypt != nil
	if pdfCtx.E != nil {
		props.Permissions = security.NewPermissions(int32(pdfCtx.E.P)).Allowed()
	}
	props.Metadata = readInfo(pdfCtx)

	return nil
}

// readInfo collects the string entries of the document information dictionary
func readInfo(pdfCtx *model.Context) map[string]string {
	meta := map[string]string{}

	if pdfCtx.Info == nil {
		return meta
	}

	infoDict, err := pdfCtx.DereferenceDict(*pdfCtx.Info)
	if err != nil || infoDict == nil {
		return meta
	}

	keys := make([]string, 0, len(infoDict))
	for k := range infoDict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if s, err := pdfCtx.DereferenceStringOrHexLiteral(infoDict[k], model.V10, nil); err == nil && s != "" {
			meta[k] = s
		}
	}

	return meta
}

func isPasswordError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "password")
}
