package pdf

import (
	"github.com/a3tai/mcp-form-filler/internal/mapping"
	"github.com/a3tai/mcp-form-filler/internal/pdf/extraction"
	"github.com/a3tai/mcp-form-filler/internal/profile"
)

// FileInfo represents information about a PDF form on disk
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// FormListRequest represents a request to list PDF forms in a directory
type FormListRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query,omitempty"`
}

// FormListResult represents the result of listing PDF forms
type FormListResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// FormInspectRequest represents a request to inspect a PDF
type FormInspectRequest struct {
	Path string `json:"path"`
}

// FormFieldsRequest represents a request to extract AcroForm fields
type FormFieldsRequest struct {
	Path string `json:"path"`
}

// FormFieldsResult lists the structured fields of a document
type FormFieldsResult struct {
	Path   string                 `json:"path"`
	Fields []extraction.FormField `json:"fields"`
	Count  int                    `json:"count"`
}

// FormLabelsRequest represents a request to extract candidate labels from unstructured text
type FormLabelsRequest struct {
	Path string `json:"path"`
}

// FormLabelsResult wraps a label extraction run
type FormLabelsResult struct {
	Path string `json:"path"`
	extraction.LabelResult
}

// FormMapRequest represents a request to map labels onto profile keys
type FormMapRequest struct {
	Labels      []string `json:"labels"`
	ProfileKeys []string `json:"profile_keys"`
	FormKind    string   `json:"form_kind,omitempty"`
	Context     string   `json:"context,omitempty"`
}

// FormResolveRequest represents a request to resolve a mapping against a profile
type FormResolveRequest struct {
	Mapping any             `json:"mapping"`
	Profile profile.Profile `json:"profile"`
}

// FormResolveResult holds the values that would be written
type FormResolveResult struct {
	Plan mapping.FillPlan `json:"plan"`
	Text string           `json:"text,omitempty"`
}

// FormFillRequest represents a request to fill an AcroForm
type FormFillRequest struct {
	Path   string            `json:"path"`
	Output string            `json:"output,omitempty"`
	Plan   map[string]string `json:"plan"`
}

// FormFillResult reports a fill attempt
type FormFillResult struct {
	Path    string `json:"path"`
	Output  string `json:"output"`
	Success bool   `json:"success"`
	Fields  int    `json:"fields"`
	Error   string `json:"error,omitempty"`
}

// FormAnalyzeRequest represents a request to run the whole pipeline on one document
type FormAnalyzeRequest struct {
	Path        string          `json:"path"`
	Profile     profile.Profile `json:"profile,omitempty"`
	ProfilePath string          `json:"profile_path,omitempty"`
	FormKind    string          `json:"form_kind,omitempty"`
	Context     string          `json:"context,omitempty"`
	// DetectKind classifies the form from its labels when neither FormKind nor Context is set.
	DetectKind bool `json:"detect_kind,omitempty"`
	// MapOnly stops after mapping without writing any output.
	MapOnly bool `json:"map_only,omitempty"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	OutputDirectory   string     `json:"output_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	Provider          string     `json:"provider"`
	MapperReady       bool       `json:"mapper_ready"`
	LabelStrategies   []string   `json:"label_strategies"`
	FormKinds         []string   `json:"form_kinds"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
