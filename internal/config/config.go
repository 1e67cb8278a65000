package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-form-filler/internal/llm/provider"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort         = 8080
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultMaxLabels    = 150
	DefaultLLMTimeout   = 60 * time.Second
	DefaultOCRTimeout   = 120 * time.Second
	DefaultOCRLanguages = "eng"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "FORM_FILLER"
)

// Config holds all configuration for the form filler server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Directories
	PDFDirectory    string
	OutputDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes

	// LLM configuration
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	LLMTimeout time.Duration
	RateLimit  int // requests per second, 0 = unlimited
	MaxLabels  int

	// Layout-aware OCR configuration
	UnstructuredURL   string
	UnstructuredToken string
	OCRLanguages      string
	OCRTimeout        time.Duration

	// ClassifierRules is an optional YAML file with extra form kind rules
	ClassifierRules string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:         ModeStdio, // Default to stdio mode for MCP compatibility
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		Version:      "1.0.0",
		ServerName:   "mcp-form-filler",
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
		Provider:     provider.Google,
		LLMTimeout:   DefaultLLMTimeout,
		MaxLabels:    DefaultMaxLabels,
		OCRLanguages: DefaultOCRLanguages,
		OCRTimeout:   DefaultOCRTimeout,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = filepath.Join(cfg.PDFDirectory, "filled")
	} else if expandedPath, err := filepath.Abs(cfg.OutputDirectory); err == nil {
		cfg.OutputDirectory = expandedPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("outdir", cfg.OutputDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("provider", cfg.Provider)
	viper.SetDefault("model", cfg.Model)
	viper.SetDefault("apikey", cfg.APIKey)
	viper.SetDefault("baseurl", cfg.BaseURL)
	viper.SetDefault("llmtimeout", cfg.LLMTimeout)
	viper.SetDefault("ratelimit", cfg.RateLimit)
	viper.SetDefault("maxlabels", cfg.MaxLabels)
	viper.SetDefault("unstructuredurl", cfg.UnstructuredURL)
	viper.SetDefault("unstructuredtoken", cfg.UnstructuredToken)
	viper.SetDefault("ocrlanguages", cfg.OCRLanguages)
	viper.SetDefault("ocrtimeout", cfg.OCRTimeout)
	viper.SetDefault("classifierrules", cfg.ClassifierRules)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF forms and profiles")
	pflag.String("outdir", cfg.OutputDirectory, "Directory for filled forms and mapping exports (default <dir>/filled)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("provider", cfg.Provider, "LLM provider ("+strings.Join(provider.Names, ", ")+")")
	pflag.String("model", cfg.Model, "LLM model name (provider default when empty)")
	pflag.String("apikey", cfg.APIKey, "LLM API key (falls back to the provider's environment variable)")
	pflag.String("baseurl", cfg.BaseURL, "LLM API base URL override")
	pflag.Duration("llmtimeout", cfg.LLMTimeout, "Timeout for one LLM request")
	pflag.Int("ratelimit", cfg.RateLimit, "Maximum LLM requests per second (0 = unlimited)")
	pflag.Int("maxlabels", cfg.MaxLabels, "Maximum number of labels sent to the LLM")
	pflag.String("unstructuredurl", cfg.UnstructuredURL, "unstructured.io partition API URL (enables OCR strategies)")
	pflag.String("unstructuredtoken", cfg.UnstructuredToken, "unstructured.io API key")
	pflag.String("ocrlanguages", cfg.OCRLanguages, "OCR languages joined with '+', e.g. eng+deu")
	pflag.Duration("ocrtimeout", cfg.OCRTimeout, "Timeout for one label extraction strategy")
	pflag.String("classifierrules", cfg.ClassifierRules, "YAML file with additional form kind rules")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range []string{
		"mode", "host", "port", "dir", "outdir", "loglevel", "maxfilesize",
		"provider", "model", "apikey", "baseurl", "llmtimeout", "ratelimit", "maxlabels",
		"unstructuredurl", "unstructuredtoken", "ocrlanguages", "ocrtimeout", "classifierrules",
	} {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Form Filler - A Model Context Protocol server that fills PDF forms from a profile\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/forms                          # stdio mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --provider=openai --model=gpt-4o-mini        # use OpenAI\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081      # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_<OPTION>  Any option above, e.g. %s_DIR, %s_PROVIDER\n", envPrefix, envPrefix, envPrefix)
		fmt.Fprintf(os.Stderr, "  GOOGLE_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY  Provider credentials\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.OutputDirectory = viper.GetString("outdir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Provider = strings.ToLower(viper.GetString("provider"))
	cfg.Model = viper.GetString("model")
	cfg.APIKey = viper.GetString("apikey")
	cfg.BaseURL = viper.GetString("baseurl")
	cfg.LLMTimeout = viper.GetDuration("llmtimeout")
	cfg.RateLimit = viper.GetInt("ratelimit")
	cfg.MaxLabels = viper.GetInt("maxlabels")
	cfg.UnstructuredURL = viper.GetString("unstructuredurl")
	cfg.UnstructuredToken = viper.GetString("unstructuredtoken")
	cfg.OCRLanguages = viper.GetString("ocrlanguages")
	cfg.OCRTimeout = viper.GetDuration("ocrtimeout")
	cfg.ClassifierRules = viper.GetString("classifierrules")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Create the PDF directory if it doesn't exist
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if !validProvider(c.Provider) {
		return fmt.Errorf("invalid provider: %s (must be one of: %s)", c.Provider, strings.Join(provider.Names, ", "))
	}

	if c.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}

	if c.MaxLabels <= 0 {
		return errors.New("maximum labels must be positive")
	}

	if c.LLMTimeout < 0 || c.OCRTimeout < 0 {
		return errors.New("timeouts cannot be negative")
	}

	return nil
}

func validProvider(name string) bool {
	if name == "" {
		return true
	}
	for _, n := range provider.Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// LLMSettings returns the provider settings derived from the configuration
func (c *Config) LLMSettings() provider.Settings {
	return provider.Settings{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Timeout:   c.LLMTimeout,
		RateLimit: c.RateLimit,
	}
}

// Languages splits OCRLanguages on '+' and ','
func (c *Config) Languages() []string {
	return strings.FieldsFunc(c.OCRLanguages, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
}

// OCREnabled reports whether the layout-aware OCR strategies are configured
func (c *Config) OCREnabled() bool {
	return c.UnstructuredURL != ""
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The API keys are never printed.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, OutputDirectory: %s, "+
		"LogLevel: %s, MaxFileSize: %d, Provider: %s, Model: %s, OCR: %t}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.OutputDirectory,
		c.LogLevel, c.MaxFileSize, c.Provider, c.Model, c.OCREnabled())
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
