package textlayer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/pdf/pdftest"
)

func TestReaderLines(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "form.pdf", pdftest.SampleForm())
	r := NewReader()

	hasText, err := r.HasText(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, hasText)

	lines, err := r.Lines(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, lines)

	joined := strings.Join(lines, " ")
	assert.Contains(t, joined, "Applicant details")
	for _, line := range lines {
		assert.Equal(t, strings.TrimSpace(line), line)
		assert.NotEmpty(t, line)
	}
}

func TestReaderEmptyPage(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "blank.pdf", pdftest.Document{})

	hasText, err := NewReader().HasText(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, hasText)
}

func TestReaderInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 truncated"), 0o600))

	_, err := NewReader().ReadPages(context.Background(), path)
	assert.Error(t, err)
	assert.False(t, IsPasswordError(err))
}

func TestReaderCancelledContext(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "form.pdf", pdftest.SampleForm())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader().ReadPages(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
