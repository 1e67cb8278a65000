package pdf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/a3tai/mcp-form-filler/internal/descriptions"
	"github.com/a3tai/mcp-form-filler/internal/mapping"
)

const (
	serverInfoFileLimit = 100
	serverInfoScanLimit = 3 * time.Second
)

// directoryCache keeps directory listings for a limited time
type directoryCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

type cacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
}

func newDirectoryCache(ttl time.Duration) *directoryCache {
	return &directoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *directoryCache) get(path string) ([]FileInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok || time.Since(entry.lastUpdate) > c.ttl {
		return nil, false
	}

	return entry.files, true
}

func (c *directoryCache) set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = cacheEntry{files: files, lastUpdate: time.Now()}
}

// ServerInfo answers form_server_info requests
type ServerInfo struct {
	service *Service
	cache   *directoryCache
}

// NewServerInfo creates a server info handler caching directory scans for five minutes
func NewServerInfo(service *Service) *ServerInfo {
	return &ServerInfo{
		service: service,
		cache:   newDirectoryCache(5 * time.Minute),
	}
}

// GetServerInfo describes the server and lists up to 100 forms of the default directory
func (p *ServerInfo) GetServerInfo(ctx context.Context, serverName, version, provider string) (*ServerInfoResult, error) {
	directory := p.service.pathValidator.GetConfiguredDirectory()

	files, ok := p.cache.get(directory)
	if !ok {
		files = p.scan(ctx, directory)
		p.cache.set(directory, files)
	}

	kinds := make([]string, len(mapping.FormKinds))
	for i, k := range mapping.FormKinds {
		kinds[i] = string(k)
	}

	return &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  directory,
		OutputDirectory:   p.service.OutputDirectory(),
		MaxFileSize:       p.service.GetMaxFileSize(),
		Provider:          provider,
		MapperReady:       p.service.MapperReady(),
		LabelStrategies:   p.service.LabelStrategies(),
		FormKinds:         kinds,
		AvailableTools:    availableTools(),
		DirectoryContents: files,
		UsageGuidance:     p.usageGuidance(),
	}, nil
}

// scan lists the directory in the background and gives up after serverInfoScanLimit
func (p *ServerInfo) scan(ctx context.Context, directory string) []FileInfo {
	ctx, cancel := context.WithTimeout(ctx, serverInfoScanLimit)
	defer cancel()

	resultChan := make(chan []FileInfo, 1)

	go func() {
		files, err := p.service.search.FindFormsLimited(directory, serverInfoFileLimit)
		if err != nil {
			files = []FileInfo{}
		}
		resultChan <- files
	}()

	select {
	case files := <-resultChan:
		return files
	case <-ctx.Done():
		return []FileInfo{}
	}
}

func availableTools() []ToolInfo {
	pathParam := "path (required): Full path to the PDF file inside the configured directory"

	return []ToolInfo{
		{
			Name:        "form_list",
			Description: descriptions.GetToolDescription("form_list"),
			Usage:       "Use this tool to find forms by filename.",
			Parameters:  "directory (optional): Directory to search (defaults to the configured directory), query (optional): fuzzy filename query",
		},
		{
			Name:        "form_inspect",
			Description: descriptions.GetToolDescription("form_inspect"),
			Usage:       "Use this tool to check a document before processing it.",
			Parameters:  pathParam,
		},
		{
			Name:        "form_extract_fields",
			Description: descriptions.GetToolDescription("form_extract_fields"),
			Usage:       "Use this tool to list AcroForm fields.",
			Parameters:  pathParam,
		},
		{
			Name:        "form_extract_labels",
			Description: descriptions.GetToolDescription("form_extract_labels"),
			Usage:       "Use this tool on flat or scanned forms without AcroForm fields.",
			Parameters:  pathParam,
		},
		{
			Name:        "form_map_fields",
			Description: descriptions.GetToolDescription("form_map_fields"),
			Usage:       "Use this tool to match labels to profile keys with the LLM.",
			Parameters:  "labels (required): JSON array of labels, profile_keys (required): JSON array of keys, form_kind (optional), context (optional)",
		},
		{
			Name:        "form_resolve",
			Description: descriptions.GetToolDescription("form_resolve"),
			Usage:       "Use this tool to compute the values a mapping would write.",
			Parameters:  "mapping (required): JSON object of label to key, profile (required): JSON object of profile values",
		},
		{
			Name:        "form_fill",
			Description: descriptions.GetToolDescription("form_fill"),
			Usage:       "Use this tool to write a filled copy of an AcroForm.",
			Parameters:  pathParam + ", plan (required): JSON object of field to value, output (optional): output file name",
		},
		{
			Name:        "form_analyze",
			Description: descriptions.GetToolDescription("form_analyze"),
			Usage:       "Use this tool to run the whole pipeline on one document.",
			Parameters:  pathParam + ", profile or profile_path (required), form_kind (optional), context (optional), map_only (optional)",
		},
		{
			Name:        "form_server_info",
			Description: descriptions.GetToolDescription("form_server_info"),
			Usage:       "Use this tool to get server configuration and capabilities.",
			Parameters:  "No parameters required",
		},
	}
}

func (p *ServerInfo) usageGuidance() string {
	maxFileSizeMB := p.service.GetMaxFileSize() / (1024 * 1024)

	return fmt.Sprintf(`Form Filler MCP Server Usage Guide:

1. DISCOVER AND TRIAGE:
   - Use 'form_list' to find forms
   - Use 'form_inspect' to reject encrypted or corrupted documents early

2. EXTRACT:
   - Use 'form_extract_fields' for fillable AcroForms
   - Use 'form_extract_labels' when a document has no fields (scanned or flat PDFs)

3. MAP AND RESOLVE:
   - Use 'form_map_fields' with the field names or labels and the profile keys
   - Use 'form_resolve' to preview the values that will be written

4. FILL:
   - Use 'form_fill' to write a filled copy of an AcroForm
   - Flat forms cannot be filled; the resolved listing is the result

5. ONE STEP:
   - Use 'form_analyze' to run everything at once

IMPORTANT NOTES:
- Paths must be inside the configured directory
- The server can handle files up to %dMB
- Inputs are never modified; outputs go to the output directory
- Mapping makes exactly one LLM call and is never retried`, maxFileSizeMB)
}
