package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-form-filler/internal/llm"
	"github.com/a3tai/mcp-form-filler/internal/llm/provider"
	"github.com/a3tai/mcp-form-filler/internal/mapping"
	"github.com/a3tai/mcp-form-filler/internal/pdf"
	"github.com/a3tai/mcp-form-filler/internal/pdf/extraction"
	"github.com/a3tai/mcp-form-filler/internal/profile"
	"github.com/a3tai/mcp-form-filler/internal/session"
	"github.com/a3tai/mcp-form-filler/internal/unstructured"
)

// kindAliases lets the command line name the predefined form kinds briefly.
var kindAliases = map[string]mapping.FormKind{
	"generic": mapping.KindGeneric,
	"kyc":     mapping.KindKYC,
	"tax":     mapping.KindTax,
	"visa":    mapping.KindVisaApplication,
	"invoice": mapping.KindInvoice,
}

type options struct {
	profilePath string
	formType    string
	context     string
	outDir      string
	detectKind  bool
	mapOnly     bool
	format      string
	verbose     bool

	provider  string
	model     string
	baseURL   string
	rateLimit int
	timeout   time.Duration
	maxLabels int

	unstructuredURL string
	ocrLanguages    string
	ocrTimeout      time.Duration
}

func newFlagSet(opts *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("form-fill", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVarP(&opts.profilePath, "profile", "p", "", "User profile (JSON or YAML)")
	fs.StringVarP(&opts.formType, "form-type", "t", "", "Form kind: generic, kyc, tax, visa, invoice")
	fs.StringVar(&opts.context, "context", "", "Free-text description of the form, overrides --form-type")
	fs.StringVarP(&opts.outDir, "outdir", "o", "", "Output directory (default: <form dir>/filled)")
	fs.BoolVar(&opts.detectKind, "detect-kind", false, "Classify the form from its labels when no kind is given")
	fs.BoolVar(&opts.mapOnly, "map-only", false, "Stop after mapping without writing output")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline progress to stderr")

	fs.StringVar(&opts.provider, "provider", provider.Google, "LLM provider: "+strings.Join(provider.Names, ", "))
	fs.StringVar(&opts.model, "model", "", "LLM model (default depends on provider)")
	fs.StringVar(&opts.baseURL, "baseurl", "", "Override the provider API endpoint")
	fs.IntVar(&opts.rateLimit, "ratelimit", 0, "Maximum LLM requests per second (0 = unlimited)")
	fs.DurationVar(&opts.timeout, "llmtimeout", 60*time.Second, "Timeout per LLM request")
	fs.IntVar(&opts.maxLabels, "maxlabels", mapping.DefaultMaxLabels, "Maximum labels sent to the LLM")

	fs.StringVar(&opts.unstructuredURL, "unstructured-url", os.Getenv("UNSTRUCTURED_API_URL"), "Partition API endpoint for OCR")
	fs.StringVar(&opts.ocrLanguages, "ocr-languages", "eng", "OCR languages, joined with +")
	fs.DurationVar(&opts.ocrTimeout, "ocrtimeout", 2*time.Minute, "Timeout per extraction strategy")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: form-fill [options] <form.pdf>\n\n")
		fmt.Fprintf(stderr, "Fills a PDF form from a user profile. AcroForms are filled in place;\n")
		fmt.Fprintf(stderr, "scanned forms get a text export of the resolved values.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nThe API key is read from %s, %s or %s.\n",
			provider.CredentialEnv(provider.Google), provider.CredentialEnv(provider.OpenAI),
			provider.CredentialEnv(provider.Anthropic))
	}

	return fs
}

// parseKind resolves a --form-type value to a predefined kind
func parseKind(s string) (mapping.FormKind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	if kind, ok := kindAliases[strings.ToLower(s)]; ok {
		return kind, nil
	}

	for _, kind := range mapping.FormKinds {
		if strings.EqualFold(string(kind), s) {
			return kind, nil
		}
	}

	names := make([]string, 0, len(kindAliases))
	for name := range kindAliases {
		names = append(names, name)
	}
	sort.Strings(names)

	return "", fmt.Errorf("unknown form type %q (valid: %s)", s, strings.Join(names, ", "))
}

func newService(ctx context.Context, opts options, formPath string) (*pdf.Service, error) {
	completer, err := provider.New(ctx, provider.Settings{
		Provider:  opts.provider,
		Model:     opts.model,
		BaseURL:   opts.baseURL,
		Timeout:   opts.timeout,
		RateLimit: opts.rateLimit,
	})
	if err != nil && !errors.Is(err, llm.ErrMissingCredential) {
		return nil, err
	}
	if err != nil && !opts.mapOnly {
		return nil, fmt.Errorf("%w: set %s", err, provider.CredentialEnv(opts.provider))
	}

	var partitioner extraction.Partitioner
	if opts.unstructuredURL != "" {
		client, err := unstructured.New(opts.unstructuredURL,
			unstructured.WithToken(os.Getenv("UNSTRUCTURED_API_KEY")),
			unstructured.WithLanguages(strings.Split(opts.ocrLanguages, "+")...),
		)
		if err != nil {
			return nil, err
		}
		partitioner = client
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(formPath), "filled")
	}

	return pdf.NewService(pdf.Options{
		MaxFileSize:     100 * 1024 * 1024,
		Directory:       filepath.Dir(formPath),
		OutputDirectory: outDir,
		Completer:       completer,
		MaxLabels:       opts.maxLabels,
		Partitioner:     partitioner,
		StrategyTimeout: opts.ocrTimeout,
	})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	formPath, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	kind, err := parseKind(opts.formType)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "Error: unsupported output format: %s\n", opts.format)
		return 2
	}

	var p profile.Profile
	if opts.profilePath != "" {
		p, err = profile.Load(opts.profilePath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	service, err := newService(ctx, opts, formPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	sess, err := service.FormAnalyze(ctx, pdf.FormAnalyzeRequest{
		Path:       formPath,
		Profile:    p,
		FormKind:   string(kind),
		Context:    opts.context,
		DetectKind: opts.detectKind,
		MapOnly:    opts.mapOnly,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.format == "json" {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(sess); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		printSummary(stdout, sess)
	}

	if failed(sess, opts.mapOnly) {
		return 1
	}
	return 0
}

// failed reports whether the session stopped before producing what was asked for
func failed(sess *session.Session, mapOnly bool) bool {
	if sess.Mode == session.ModeInvalid {
		return true
	}
	if mapOnly {
		return !sess.Mapped()
	}
	return sess.FilledPath == "" && sess.ExportPath == ""
}

func printSummary(w io.Writer, sess *session.Session) {
	fmt.Fprintf(w, "Form: %s\n", sess.Path)
	fmt.Fprintf(w, "Mode: %s\n", sess.Mode)

	switch sess.Mode {
	case session.ModeAcroForm:
		fmt.Fprintf(w, "Fields: %d\n", len(sess.Fields))
	case session.ModeUnstructured:
		fmt.Fprintf(w, "Labels: %d (strategy: %s)\n", len(sess.Labels), sess.LabelStrategy)
	}

	if sess.DetectedKind != "" {
		fmt.Fprintf(w, "Detected kind: %s\n", sess.DetectedKind)
	}

	if sess.Mapping != nil {
		if sess.Mapped() {
			fmt.Fprintf(w, "Mapped: %d\n", len(sess.Mapping.Mapping))
		}
		if len(sess.Mapping.Dropped) > 0 {
			fmt.Fprintf(w, "Dropped: %s\n", strings.Join(sess.Mapping.Dropped, ", "))
		}
	}

	if len(sess.Plan) > 0 {
		fmt.Fprintln(w)
		names := make([]string, 0, len(sess.Plan))
		for name := range sess.Plan {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, sess.Plan[name])
		}
		fmt.Fprintln(w)
	}

	if sess.FilledPath != "" {
		fmt.Fprintf(w, "Filled: %s\n", sess.FilledPath)
	}
	if sess.ExportPath != "" {
		fmt.Fprintf(w, "Export: %s\n", sess.ExportPath)
	}
	if sess.Message != "" {
		fmt.Fprintf(w, "Note: %s\n", sess.Message)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
