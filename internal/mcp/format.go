package mcp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-form-filler/internal/pdf"
	"github.com/a3tai/mcp-form-filler/internal/pdf/inspect"
)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorJSONResult reports a failure together with the diagnostics gathered so far
func errorJSONResult(msg string, v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(msg), nil
	}
	return mcp.NewToolResultError(msg + "\n\n" + string(data)), nil
}

func formatFormListResult(result *pdf.FormListResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Found %d PDF form(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		fmt.Fprintf(&b, "Search query: %s\n", result.SearchQuery)
	}
	b.WriteString("\nFiles:\n")

	for i, file := range result.Files {
		fmt.Fprintf(&b, "%d. %s\n", i+1, file.Name)
		fmt.Fprintf(&b, "   Path: %s\n", file.Path)
		fmt.Fprintf(&b, "   Size: %d bytes\n", file.Size)
		fmt.Fprintf(&b, "   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func formatInspectResult(props *inspect.Properties) string {
	var b strings.Builder

	b.WriteString("PDF Form Properties\n")
	fmt.Fprintf(&b, "File: %s\n", props.Path)
	fmt.Fprintf(&b, "Pages: %d\n", props.PageCount)
	fmt.Fprintf(&b, "Encrypted: %t\n", props.IsEncrypted)
	fmt.Fprintf(&b, "Needs password: %t\n", props.NeedsPassword)
	fmt.Fprintf(&b, "Has text layer: %t\n", props.HasTextLayer)
	fmt.Fprintf(&b, "Likely corrupted: %t\n", props.IsLikelyCorrupted)

	if len(props.Permissions) > 0 {
		fmt.Fprintf(&b, "Permissions: %s\n", strings.Join(props.Permissions, ", "))
	}

	if len(props.Metadata) > 0 {
		keys := make([]string, 0, len(props.Metadata))
		for k := range props.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("Metadata:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, props.Metadata[k])
		}
	}

	if props.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", props.Error)
	}

	if props.Processable() {
		b.WriteString("\nNext step: form_extract_fields, or form_extract_labels for flat forms\n")
	} else {
		b.WriteString("\nThis document cannot be processed\n")
	}

	return b.String()
}

func formatServerInfoResult(result *pdf.ServerInfoResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s v%s - Server Information\n", result.ServerName, result.Version)
	fmt.Fprintf(&b, "Default Directory: %s\n", result.DefaultDirectory)
	fmt.Fprintf(&b, "Output Directory: %s\n", result.OutputDirectory)
	fmt.Fprintf(&b, "Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	fmt.Fprintf(&b, "LLM Provider: %s (ready: %t)\n", result.Provider, result.MapperReady)
	fmt.Fprintf(&b, "Label Strategies: %s\n", strings.Join(result.LabelStrategies, " → "))
	fmt.Fprintf(&b, "Form Kinds: %s\n\n", strings.Join(result.FormKinds, ", "))

	if len(result.DirectoryContents) > 0 {
		fmt.Fprintf(&b, "Directory Contents (%d PDF forms found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 {
				fmt.Fprintf(&b, "   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			fmt.Fprintf(&b, "   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Directory Contents: No PDF forms found in default directory\n\n")
	}

	b.WriteString("Available Tools:\n")
	for _, tool := range result.AvailableTools {
		fmt.Fprintf(&b, "\n• %s\n", tool.Name)
		fmt.Fprintf(&b, "  Description: %s\n", tool.Description)
		fmt.Fprintf(&b, "  Usage: %s\n", tool.Usage)
		fmt.Fprintf(&b, "  Parameters: %s\n", tool.Parameters)
	}

	b.WriteString("\n" + result.UsageGuidance)

	return b.String()
}
