package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-form-filler/internal/config"
	"github.com/a3tai/mcp-form-filler/internal/descriptions"
	"github.com/a3tai/mcp-form-filler/internal/mapping"
	"github.com/a3tai/mcp-form-filler/internal/pdf"
	"github.com/a3tai/mcp-form-filler/internal/profile"
	"github.com/a3tai/mcp-form-filler/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	serverInfo *pdf.ServerInfo
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool set is static
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		serverInfo: pdf.NewServerInfo(pdfService),
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

func pathArg() mcp.ToolOption {
	return mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Full path to the PDF form inside the configured directory"),
	)
}

func profileArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithObject("profile",
			mcp.Description("Flat user profile object, e.g. {\"first_name\": \"Ada\"}"),
		),
		mcp.WithString("profile_path",
			mcp.Description("JSON or YAML profile file inside the configured directory (overrides profile)"),
		),
	}
}

func hintArgs() []mcp.ToolOption {
	kinds := make([]string, 0, len(mapping.FormKinds))
	for _, k := range mapping.FormKinds {
		kinds = append(kinds, string(k))
	}

	return []mcp.ToolOption{
		mcp.WithString("form_kind",
			mcp.Description("Kind of form: "+strings.Join(kinds, ", ")),
		),
		mcp.WithString("context",
			mcp.Description("Free text describing the form; takes precedence over form_kind"),
		),
	}
}

func tool(name string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(descriptions.GetToolDescription(name))}, opts...)...)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(tool("form_list",
		mcp.WithString("directory", mcp.Description("Directory to search (uses default if empty)")),
		mcp.WithString("query", mcp.Description("Optional search query for fuzzy matching")),
	), s.handleFormList)

	s.mcpServer.AddTool(tool("form_inspect", pathArg()), s.handleFormInspect)
	s.mcpServer.AddTool(tool("form_extract_fields", pathArg()), s.handleFormExtractFields)
	s.mcpServer.AddTool(tool("form_extract_labels", pathArg()), s.handleFormExtractLabels)

	mapOpts := []mcp.ToolOption{
		mcp.WithArray("labels",
			mcp.Required(),
			mcp.Description("Field names or label texts to map"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("profile_keys",
			mcp.Description("Profile keys to map onto; taken from profile or profile_path when omitted"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	}
	mapOpts = append(mapOpts, profileArgs()...)
	mapOpts = append(mapOpts, hintArgs()...)
	s.mcpServer.AddTool(tool("form_map_fields", mapOpts...), s.handleFormMapFields)

	resolveOpts := []mcp.ToolOption{
		mcp.WithObject("mapping",
			mcp.Required(),
			mcp.Description("Label to profile key mapping; values are a key, comma separated keys or NOMATCH"),
		),
	}
	resolveOpts = append(resolveOpts, profileArgs()...)
	s.mcpServer.AddTool(tool("form_resolve", resolveOpts...), s.handleFormResolve)

	s.mcpServer.AddTool(tool("form_fill",
		pathArg(),
		mcp.WithObject("plan",
			mcp.Required(),
			mcp.Description("Field name to value object"),
		),
		mcp.WithString("output",
			mcp.Description("Output file name or path inside the output directory (default filled_<name>)"),
		),
	), s.handleFormFill)

	analyzeOpts := []mcp.ToolOption{pathArg()}
	analyzeOpts = append(analyzeOpts, profileArgs()...)
	analyzeOpts = append(analyzeOpts, hintArgs()...)
	analyzeOpts = append(analyzeOpts,
		mcp.WithBoolean("detect_kind",
			mcp.Description("Guess the form kind from its labels when neither form_kind nor context is given"),
		),
		mcp.WithBoolean("map_only",
			mcp.Description("Stop after mapping and resolving without writing any output"),
		),
	)
	s.mcpServer.AddTool(tool("form_analyze", analyzeOpts...), s.handleFormAnalyze)

	s.mcpServer.AddTool(tool("form_server_info"), s.handleFormServerInfo)
}

// Handler functions
func (s *Server) handleFormList(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := pdf.FormListRequest{
		Directory: stringArg(args, "directory"),
		Query:     stringArg(args, "query"),
	}

	result, err := s.pdfService.FormList(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.TotalCount == 0 {
		text := fmt.Sprintf("No PDF forms found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			text += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
		return mcp.NewToolResultText(text), nil
	}

	return mcp.NewToolResultText(formatFormListResult(result)), nil
}

func (s *Server) handleFormInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	props, err := s.pdfService.FormInspect(ctx, pdf.FormInspectRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatInspectResult(props)), nil
}

func (s *Server) handleFormExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.FormExtractFields(ctx, pdf.FormFieldsRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(result)
}

func (s *Server) handleFormExtractLabels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.FormExtractLabels(ctx, pdf.FormLabelsRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Aborted != "" {
		return errorJSONResult(fmt.Sprintf("label extraction aborted for %s: %s", path, result.Aborted), result)
	}

	return jsonResult(result)
}

func (s *Server) handleFormMapFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	labels, err := stringSliceArg(args, "labels")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	keys, err := stringSliceArg(args, "profile_keys")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(keys) == 0 {
		p, err := s.profileArg(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		keys = p.Keys()
	}

	result := s.pdfService.FormMapFields(ctx, pdf.FormMapRequest{
		Labels:      labels,
		ProfileKeys: keys,
		FormKind:    stringArg(args, "form_kind"),
		Context:     stringArg(args, "context"),
	})

	if result.Error != "" {
		return errorJSONResult("mapping failed: "+result.Error, result)
	}

	return jsonResult(result)
}

func (s *Server) handleFormResolve(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	m, err := mappingArg(args, "mapping")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := s.profileArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(s.pdfService.FormResolve(pdf.FormResolveRequest{Mapping: m, Profile: p}))
}

func (s *Server) handleFormFill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()

	plan, err := planArg(args, "plan")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.FormFill(ctx, pdf.FormFillRequest{
		Path:   path,
		Output: stringArg(args, "output"),
		Plan:   plan,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Success {
		return errorJSONResult(fmt.Sprintf("fill failed for %s: %s", path, result.Error), result)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Filled %d field(s) of %s\nOutput: %s", result.Fields, result.Path, result.Output)), nil
}

func (s *Server) handleFormAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()

	req := pdf.FormAnalyzeRequest{
		Path:        path,
		ProfilePath: stringArg(args, "profile_path"),
		FormKind:    stringArg(args, "form_kind"),
		Context:     stringArg(args, "context"),
		DetectKind:  boolArg(args, "detect_kind"),
		MapOnly:     boolArg(args, "map_only"),
	}

	if req.ProfilePath == "" {
		p, err := s.profileArg(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Profile = p
	}

	sess, err := s.pdfService.FormAnalyze(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if failed(sess, req.MapOnly) {
		msg := sess.Message
		if msg == "" {
			msg = "analysis did not complete"
		}
		return errorJSONResult(fmt.Sprintf("%s: %s", path, msg), sess)
	}

	return jsonResult(sess)
}

// failed reports whether the analysis stopped before producing what was asked for
func failed(sess *session.Session, mapOnly bool) bool {
	if sess.Mode == session.ModeInvalid {
		return true
	}
	if mapOnly {
		return sess.Mapping != nil && sess.Mapping.Error != ""
	}
	return sess.FilledPath == "" && sess.ExportPath == ""
}

func (s *Server) handleFormServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.serverInfo.GetServerInfo(ctx, s.config.ServerName, s.config.Version, s.config.Provider)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatServerInfoResult(result)), nil
}

// profileArg reads profile_path, or the inline profile object, into a validated profile
func (s *Server) profileArg(args map[string]any) (profile.Profile, error) {
	if path := stringArg(args, "profile_path"); path != "" {
		return s.pdfService.LoadProfile(path)
	}

	data, ok, err := rawJSONArg(args, "profile")
	if err != nil || !ok {
		return profile.Profile{}, err
	}

	return profile.Parse(data, profile.FormatJSON)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	slog.Debug("Starting form filler MCP server in stdio mode", "directory", s.config.PDFDirectory)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting form filler MCP server in SSE mode", "address", addr, "directory", s.config.PDFDirectory)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve sse: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down sse server: %w", err)
	}

	slog.Info("Form filler MCP server stopped")
	return nil
}
