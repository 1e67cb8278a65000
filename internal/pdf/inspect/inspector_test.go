package inspect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/pdf/pdftest"
)

func TestInspectRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	notPDF := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("hello"), 0o600))

	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not a pdf at all"), 0o600))

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	big := pdftest.WriteFile(t, dir, "big.pdf", pdftest.SampleForm())

	tests := []struct {
		name        string
		path        string
		maxFileSize int64
	}{
		{"missing file", filepath.Join(dir, "missing.pdf"), 1 << 20},
		{"directory", dir, 1 << 20},
		{"text file", notPDF, 1 << 20},
		{"empty file", empty, 1 << 20},
		{"garbage content", garbage, 1 << 20},
		{"too large", big, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := NewInspector(tt.maxFileSize).Inspect(context.Background(), tt.path)

			assert.True(t, props.IsLikelyCorrupted)
			assert.NotEmpty(t, props.Error)
			assert.False(t, props.Processable())
			assert.NotNil(t, props.Metadata)
		})
	}
}

func TestInspectValidForm(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "form.pdf", pdftest.SampleForm())

	props := NewInspector(1<<20).Inspect(context.Background(), path)

	assert.False(t, props.IsLikelyCorrupted, props.Error)
	assert.Empty(t, props.Error)
	assert.Equal(t, 1, props.PageCount)
	assert.False(t, props.IsEncrypted)
	assert.False(t, props.NeedsPassword)
	assert.True(t, props.HasTextLayer)
	assert.True(t, props.Processable())
}

func TestInspectIgnoresExtension(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.WriteFile(t, dir, "form.pdf", pdftest.SampleForm())
	upload := filepath.Join(dir, "upload_8f3a.tmp")

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(upload, data, 0o600))

	props := NewInspector(1<<20).Inspect(context.Background(), upload)

	assert.False(t, props.IsLikelyCorrupted, props.Error)
	assert.Equal(t, 1, props.PageCount)
	assert.True(t, props.Processable())
}

func TestInspectNoTextLayer(t *testing.T) {
	doc := pdftest.Document{
		Fields: []pdftest.Field{{Name: "only_field", Kind: pdftest.KindText}},
	}
	path := pdftest.WriteFile(t, t.TempDir(), "blank.pdf", doc)

	props := NewInspector(1<<20).Inspect(context.Background(), path)

	assert.False(t, props.IsLikelyCorrupted, props.Error)
	assert.False(t, props.HasTextLayer)
}

func TestInspectEncrypted(t *testing.T) {
	dir := t.TempDir()
	plain := pdftest.WriteFile(t, dir, "plain.pdf", pdftest.SampleForm())
	encrypted := filepath.Join(dir, "encrypted.pdf")

	conf := model.NewAESConfiguration("", "owner-secret", 128)
	require.NoError(t, api.EncryptFile(plain, encrypted, conf))

	props := NewInspector(1<<20).Inspect(context.Background(), encrypted)

	assert.True(t, props.IsEncrypted)
	assert.False(t, props.Processable())
}
