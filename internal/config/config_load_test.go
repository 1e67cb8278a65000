package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var envKeys = []string{
	"MODE", "HOST", "PORT", "DIR", "OUTDIR", "LOGLEVEL", "MAXFILESIZE", "PROVIDER", "MODEL",
	"APIKEY", "BASEURL", "LLMTIMEOUT", "RATELIMIT", "MAXLABELS", "UNSTRUCTUREDURL",
	"UNSTRUCTUREDTOKEN", "OCRLANGUAGES", "OCRTIMEOUT", "CLASSIFIERRULES",
}

// load runs LoadFromFlags with args and env isolated from the test process
func load(t *testing.T, env map[string]string, args ...string) (*Config, error) {
	t.Helper()

	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		pflag.CommandLine = pflag.NewFlagSet(originalArgs[0], pflag.ExitOnError)
		viper.Reset()
	})

	for _, key := range envKeys {
		t.Setenv(envPrefix+"_"+key, "")
		os.Unsetenv(envPrefix + "_" + key)
	}
	for key, value := range env {
		t.Setenv(key, value)
	}

	os.Args = append([]string{"mcp-form-filler"}, args...)
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()

	return LoadFromFlags()
}

func TestLoadFromFlags_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := load(t, nil, "--dir="+dir)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != ModeStdio {
		t.Errorf("Mode = %v, want %v", cfg.Mode, ModeStdio)
	}
	if cfg.Provider != "google" {
		t.Errorf("Provider = %v, want google", cfg.Provider)
	}
	if cfg.MaxLabels != 150 {
		t.Errorf("MaxLabels = %v, want 150", cfg.MaxLabels)
	}
	if cfg.OutputDirectory != filepath.Join(dir, "filled") {
		t.Errorf("OutputDirectory = %v, want %v", cfg.OutputDirectory, filepath.Join(dir, "filled"))
	}
	if cfg.LLMTimeout != DefaultLLMTimeout {
		t.Errorf("LLMTimeout = %v, want %v", cfg.LLMTimeout, DefaultLLMTimeout)
	}
	if cfg.OCREnabled() {
		t.Error("OCR should be disabled without an unstructured URL")
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()

	cfg, err := load(t, nil,
		"--dir="+dir,
		"--outdir="+out,
		"--mode=server",
		"--host=0.0.0.0",
		"--port=9090",
		"--loglevel=debug",
		"--provider=Anthropic",
		"--model=claude-3-5-haiku-latest",
		"--llmtimeout=15s",
		"--ratelimit=2",
		"--maxlabels=40",
		"--unstructuredurl=http://localhost:8000/general/v0/general",
		"--ocrlanguages=eng+deu",
		"--ocrtimeout=30s",
	)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Address() != "0.0.0.0:9090" {
		t.Errorf("Address() = %v", cfg.Address())
	}
	if !cfg.IsDebug() || !cfg.IsServerMode() {
		t.Errorf("expected debug server mode, got %s", cfg)
	}
	if cfg.OutputDirectory != out {
		t.Errorf("OutputDirectory = %v, want %v", cfg.OutputDirectory, out)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %v, want anthropic", cfg.Provider)
	}
	if cfg.LLMTimeout != 15*time.Second || cfg.OCRTimeout != 30*time.Second {
		t.Errorf("unexpected timeouts %v %v", cfg.LLMTimeout, cfg.OCRTimeout)
	}
	if got := strings.Join(cfg.Languages(), ","); got != "eng,deu" {
		t.Errorf("Languages() = %v", got)
	}

	settings := cfg.LLMSettings()
	if settings.Provider != "anthropic" || settings.RateLimit != 2 || settings.Model != "claude-3-5-haiku-latest" {
		t.Errorf("unexpected LLM settings %+v", settings)
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	dir := t.TempDir()

	cfg, err := load(t, map[string]string{
		"FORM_FILLER_MODE":      "server",
		"FORM_FILLER_PORT":      "3000",
		"FORM_FILLER_DIR":       dir,
		"FORM_FILLER_PROVIDER":  "openai",
		"FORM_FILLER_APIKEY":    "sk-env",
		"FORM_FILLER_MAXLABELS": "10",
	})
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != ModeServer || cfg.Port != 3000 {
		t.Errorf("unexpected mode/port %s %d", cfg.Mode, cfg.Port)
	}
	if cfg.Provider != "openai" || cfg.APIKey != "sk-env" || cfg.MaxLabels != 10 {
		t.Errorf("unexpected LLM config %s", cfg)
	}
	if strings.Contains(cfg.String(), "sk-env") {
		t.Error("String() must not print the API key")
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	dir := t.TempDir()

	cfg, err := load(t, map[string]string{
		"FORM_FILLER_PROVIDER": "openai",
		"FORM_FILLER_PORT":     "3000",
	}, "--dir="+dir, "--provider=google", "--port=8888")
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Provider != "google" {
		t.Errorf("Provider = %v, want google (should override env)", cfg.Provider)
	}
	if cfg.Port != 8888 {
		t.Errorf("Port = %v, want 8888 (should override env)", cfg.Port)
	}
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"mode", []string{"--mode=invalid"}, "mode must be either 'stdio' or 'server'"},
		{"port", []string{"--mode=server", "--port=99999"}, "port must be between 1 and 65535"},
		{"log level", []string{"--loglevel=verbose"}, "invalid log level"},
		{"provider", []string{"--provider=cohere"}, "invalid provider"},
		{"rate limit", []string{"--ratelimit=-1"}, "rate limit cannot be negative"},
		{"max labels", []string{"--maxlabels=0"}, "maximum labels must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--dir=" + t.TempDir()}, tt.args...)

			_, err := load(t, nil, args...)
			if err == nil {
				t.Fatalf("LoadFromFlags() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	_, err := load(t, nil, "--version")
	if err == nil || err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}
