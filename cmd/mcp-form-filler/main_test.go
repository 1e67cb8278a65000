package main

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/config"
	"github.com/a3tai/mcp-form-filler/internal/llm/provider"
)

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)

	output := buf.String()
	assert.Contains(t, output, "MCP Form Filler")
	assert.Contains(t, output, "Version: "+version)
	assert.Contains(t, output, "Build Time: "+buildTime)
	assert.Contains(t, output, "Git Commit: "+gitCommit)
	assert.Contains(t, output, runtime.Version())
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		level      string
		wantStdout bool
		enabled    slog.Level
		disabled   slog.Level
	}{
		{"stdio info is raised to warn", config.ModeStdio, "info", false, slog.LevelWarn, slog.LevelInfo},
		{"stdio debug", config.ModeStdio, "debug", false, slog.LevelDebug, slog.LevelDebug - 1},
		{"server info", config.ModeServer, "info", true, slog.LevelInfo, slog.LevelDebug},
		{"server error", config.ModeServer, "error", true, slog.LevelError, slog.LevelWarn},
		{"unknown level falls back to info", config.ModeServer, "chatty", true, slog.LevelInfo, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Mode = tt.mode
			cfg.LogLevel = tt.level

			var stdout, stderr bytes.Buffer
			logger := newLogger(cfg, &stdout, &stderr)

			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.enabled))
			assert.False(t, logger.Enabled(ctx, tt.disabled))

			logger.Log(ctx, tt.enabled, "hello")
			if tt.wantStdout {
				assert.Contains(t, stdout.String(), `"msg":"hello"`)
				assert.Empty(t, stderr.String())
			} else {
				assert.Contains(t, stderr.String(), "msg=hello")
				assert.Empty(t, stdout.String())
			}
		})
	}
}

func TestNewCompleter_MissingCredential(t *testing.T) {
	t.Setenv(provider.CredentialEnv(provider.OpenAI), "")

	cfg := config.DefaultConfig()
	cfg.Provider = provider.OpenAI
	cfg.APIKey = ""

	completer, err := newCompleter(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, completer)
}

func TestNewCompleter_WithKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = provider.Anthropic
	cfg.APIKey = "test-key"

	completer, err := newCompleter(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, completer)
}

func TestNewPartitioner(t *testing.T) {
	cfg := config.DefaultConfig()

	partitioner, err := newPartitioner(cfg)
	require.NoError(t, err)
	assert.Nil(t, partitioner)

	cfg.UnstructuredURL = "http://localhost:8000/general/v0/general"
	partitioner, err = newPartitioner(cfg)
	require.NoError(t, err)
	assert.NotNil(t, partitioner)
}

func TestNewService(t *testing.T) {
	t.Setenv(provider.CredentialEnv(provider.Google), "")

	cfg := config.DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	cfg.APIKey = ""

	service, err := newService(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, service)

	assert.False(t, service.MapperReady())
	assert.Equal(t, []string{"text_layer"}, service.LabelStrategies())
}

func TestNewService_InvalidFileSize(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	cfg.MaxFileSize = 0

	_, err := newService(context.Background(), cfg)
	assert.Error(t, err)
}
