package pdf

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/a3tai/mcp-form-filler/internal/pdf/pdftest"
)

func TestServerInfo(t *testing.T) {
	tempDir := t.TempDir()
	pdftest.WriteFile(t, tempDir, "form.pdf", pdftest.SampleForm())

	maxFileSize := int64(100 * 1024 * 1024)
	serverName := "test-form-server"
	version := "1.0.0-test"

	service, err := NewService(Options{MaxFileSize: maxFileSize, Directory: tempDir})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	info := NewServerInfo(service)
	result, err := info.GetServerInfo(context.Background(), serverName, version, "google")
	if err != nil {
		t.Fatalf("Server info failed: %v", err)
	}

	if result.ServerName != serverName {
		t.Errorf("Expected server name %s, got %s", serverName, result.ServerName)
	}

	if result.Version != version {
		t.Errorf("Expected version %s, got %s", version, result.Version)
	}

	if result.DefaultDirectory != tempDir {
		t.Errorf("Expected directory %s, got %s", tempDir, result.DefaultDirectory)
	}

	if result.OutputDirectory != filepath.Join(tempDir, "filled") {
		t.Errorf("Unexpected output directory %s", result.OutputDirectory)
	}

	if result.MaxFileSize != maxFileSize {
		t.Errorf("Expected max file size %d, got %d", maxFileSize, result.MaxFileSize)
	}

	if result.MapperReady {
		t.Errorf("Mapper should not be ready without a completer")
	}

	if len(result.LabelStrategies) != 1 || result.LabelStrategies[0] != "text_layer" {
		t.Errorf("Expected only the text layer strategy, got %v", result.LabelStrategies)
	}

	expectedTools := []string{
		"form_list", "form_inspect", "form_extract_fields", "form_extract_labels",
		"form_map_fields", "form_resolve", "form_fill", "form_analyze", "form_server_info",
	}
	if len(result.AvailableTools) != len(expectedTools) {
		t.Fatalf("Expected %d tools, got %d", len(expectedTools), len(result.AvailableTools))
	}
	for i, name := range expectedTools {
		if result.AvailableTools[i].Name != name {
			t.Errorf("Expected tool %s at %d, got %s", name, i, result.AvailableTools[i].Name)
		}
	}

	if len(result.DirectoryContents) != 1 || result.DirectoryContents[0].Name != "form.pdf" {
		t.Errorf("Expected form.pdf in directory contents, got %v", result.DirectoryContents)
	}

	if len(result.FormKinds) != 5 || result.FormKinds[0] != "Generic" {
		t.Errorf("Unexpected form kinds %v", result.FormKinds)
	}

	// a second call is served from the cache
	pdftest.WriteFile(t, tempDir, "other.pdf", pdftest.SampleForm())
	again, err := info.GetServerInfo(context.Background(), serverName, version, "google")
	if err != nil {
		t.Fatalf("Server info failed: %v", err)
	}
	if len(again.DirectoryContents) != 1 {
		t.Errorf("Expected cached directory contents, got %d files", len(again.DirectoryContents))
	}
}
