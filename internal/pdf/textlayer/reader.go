// Package textlayer reads the embedded, selectable text of a PDF without OCR.
package textlayer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxTextSize bounds the amount of text collected from one document.
const DefaultMaxTextSize = 10 * 1024 * 1024

// Page holds the plain text of one page.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Reader extracts plain page text using ledongthuc/pdf.
type Reader struct {
	maxTextSize int
}

// NewReader creates a text layer reader with the default text limit
func NewReader() *Reader {
	return &Reader{
		maxTextSize: DefaultMaxTextSize,
	}
}

// IsPasswordError reports whether err means the document cannot be opened without a password.
func IsPasswordError(err error) bool {
	return errors.Is(err, pdf.ErrInvalidPassword)
}

// ReadPages returns the plain text of every page that yields any. Pages that fail or
// panic inside the parser are skipped.
func (r *Reader) ReadPages(ctx context.Context, path string) ([]Page, error) {
	var pages []Page

	err := r.walk(ctx, path, func(num int, text string) bool {
		pages = append(pages, Page{Number: num, Text: text})
		return true
	})
	if err != nil {
		return nil, err
	}

	return pages, nil
}

// HasText reports whether at least one page yields non-whitespace text.
func (r *Reader) HasText(ctx context.Context, path string) (bool, error) {
	found := false

	err := r.walk(ctx, path, func(_ int, text string) bool {
		if strings.TrimSpace(text) != "" {
			found = true
			return false
		}
		return true
	})

	return found, err
}

// Lines splits every page into trimmed, non-empty lines in reading order.
func (r *Reader) Lines(ctx context.Context, path string) ([]string, error) {
	pages, err := r.ReadPages(ctx, path)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, p := range pages {
		for _, line := range strings.Split(p.Text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}

	return lines, nil
}

func (r *Reader) walk(ctx context.Context, path string, visit func(num int, text string) bool) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("text layer parser panic: %v", rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	total := 0
	for num := 1; num <= reader.NumPage(); num++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, ok := r.pageText(reader, num)
		if !ok || text == "" {
			continue
		}

		if total+len(text) > r.maxTextSize {
			slog.Warn("Text layer limit reached", "path", path, "page", num, "limit", r.maxTextSize)
			break
		}
		total += len(text)

		if !visit(num, text) {
			break
		}
	}

	return nil
}

func (r *Reader) pageText(reader *pdf.Reader, num int) (text string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Debug("Page text extraction panic", "page", num, "panic", rec)
			text, ok = "", false
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", false
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return "", false
	}

	return content, true
}
