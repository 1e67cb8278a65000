package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-form-filler/internal/config"
	"github.com/a3tai/mcp-form-filler/internal/llm"
	"github.com/a3tai/mcp-form-filler/internal/llm/provider"
	"github.com/a3tai/mcp-form-filler/internal/mcp"
	"github.com/a3tai/mcp-form-filler/internal/pdf"
	"github.com/a3tai/mcp-form-filler/internal/pdf/extraction"
	"github.com/a3tai/mcp-form-filler/internal/unstructured"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger returns the logger for the configured mode. In stdio mode only warnings and
// errors reach stderr unless debug is enabled, so the MCP stream on stdout stays clean.
func newLogger(cfg *config.Config, stdout, stderr io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	if cfg.IsStdioMode() {
		if !cfg.IsDebug() && level < slog.LevelWarn {
			level = slog.LevelWarn
		}
		return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: level}))
}

// newCompleter builds the LLM client. A missing credential is not fatal: mapping
// reports it per call instead.
func newCompleter(ctx context.Context, cfg *config.Config) (llm.Completer, error) {
	completer, err := provider.New(ctx, cfg.LLMSettings())
	if errors.Is(err, llm.ErrMissingCredential) {
		slog.Warn("No LLM credential configured; mapping is unavailable",
			"provider", cfg.Provider, "env", provider.CredentialEnv(cfg.Provider))
		return nil, nil
	}
	return completer, err
}

// newPartitioner builds the unstructured.io client, or returns nil when OCR is not configured
func newPartitioner(cfg *config.Config) (extraction.Partitioner, error) {
	if !cfg.OCREnabled() {
		return nil, nil
	}

	client, err := unstructured.New(cfg.UnstructuredURL,
		unstructured.WithToken(cfg.UnstructuredToken),
		unstructured.WithLanguages(cfg.Languages()...),
	)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// newService wires the form pipeline from the configuration
func newService(ctx context.Context, cfg *config.Config) (*pdf.Service, error) {
	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	partitioner, err := newPartitioner(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create partition client: %w", err)
	}

	service, err := pdf.NewService(pdf.Options{
		MaxFileSize:     cfg.MaxFileSize,
		Directory:       cfg.PDFDirectory,
		OutputDirectory: cfg.OutputDirectory,
		Completer:       completer,
		MaxLabels:       cfg.MaxLabels,
		Partitioner:     partitioner,
		StrategyTimeout: cfg.OCRTimeout,
		ClassifierRules: cfg.ClassifierRules,
	})
	if err != nil {
		return nil, err
	}

	if err := service.ValidateConfiguration(); err != nil {
		return nil, err
	}

	return service, nil
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		slog.Info("Received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()

		if err := <-serverErrCh; err != nil {
			return fmt.Errorf("server shutdown with error: %w", err)
		}

	case err := <-serverErrCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	slog.Info("Server stopped successfully")
	return nil
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg, os.Stdout, os.Stderr))

	if version != "dev" {
		cfg.Version = version
	}

	slog.Debug("Starting with configuration", "config", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service, err := newService(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create form service", "error", err)
		os.Exit(1)
	}

	server, err := mcp.NewServer(cfg, service)
	if err != nil {
		slog.Error("Failed to create MCP server", "error", err)
		os.Exit(1)
	}

	if cfg.IsServerMode() {
		err = runServerMode(ctx, cancel, server)
	} else {
		// the parent process controls the lifecycle in stdio mode
		err = server.Run(ctx)
	}

	if err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP Form Filler\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
