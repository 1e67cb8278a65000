package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Discovery Tools
	FormListDescription = `Find fillable PDF forms in the configured directory with fuzzy filename search.

**When to use:** Need to locate a form before analyzing or filling it, or to see which forms are available.

**Why it's useful:** Skips hidden folders, empty files and files above the size limit, so every result can be processed.

**Examples:**
• Find a tax form: "List forms matching 'w9'"
• Browse an intake folder: "List all forms in /srv/forms/incoming"

**Common workflows:**
1. Discovery: form_list → form_inspect → form_analyze
2. Batch preparation: form_list → form_extract_fields on each result

**Best practices:** Queries match words across '_', '-', '.' and spaces; results are sorted by path.`

	FormInspectDescription = `Check whether a PDF can be processed before doing any extraction work.

**When to use:** First step for any unknown document, especially uploads.

**Why it's useful:** Reports page count, encryption, password protection, text layer presence, likely corruption and document metadata without ever failing.

**Examples:**
• Upload triage: "Inspect contract.pdf and tell me if it is password protected"
• OCR planning: "Does scan.pdf have a text layer?"

**Common workflows:**
1. Triage: form_inspect → if encrypted or corrupted stop → otherwise form_analyze
2. Scanned documents: form_inspect shows has_text_layer=false → expect OCR strategies in form_extract_labels

**Best practices:** Encrypted and corrupted documents are never processed further; ask the user for a decrypted copy.`

	// Extraction Tools
	FormExtractFieldsDescription = `List the interactive AcroForm fields of a PDF.

**When to use:** The document is a fillable form and you need its field names, types, current values, options and positions.

**Why it's useful:** Field names are what form_fill writes to; checkbox and radio states tell you which values are accepted.

**Examples:**
• "What fields does application.pdf have?"
• "Which options does the country dropdown of visa.pdf offer?"

**Common workflows:**
1. Manual fill: form_extract_fields → build a plan → form_fill
2. LLM fill: form_extract_fields → form_map_fields with the field names → form_resolve → form_fill

**Best practices:** An empty result means the document has no AcroForm; use form_extract_labels instead.`

	FormExtractLabelsDescription = `Extract candidate field labels from documents without AcroForm fields.

**When to use:** Scanned or flat PDFs where labels like "Name:" or "Date of birth:" are only printed text.

**Why it's useful:** Tries layout-aware OCR, then plain OCR, then the embedded text layer, keeping short colon-terminated or title-like text and dropping prose.

**Examples:**
• "Which labels are printed on scanned-kyc.pdf?"

**Common workflows:**
1. Flat form mapping: form_extract_labels → form_map_fields → form_resolve (export text, no fill)

**Best practices:** Check 'strategy' and 'attempts' in the result to see which rung produced the labels and why others failed.`

	// Mapping Tools
	FormMapFieldsDescription = `Ask the LLM to map form labels onto user profile keys.

**When to use:** You have field names or labels and a user profile, and need to know which profile key fills which field.

**Why it's useful:** Handles composite values such as "Full Name" → "first_name, last_name" and marks unmappable fields as NOMATCH.

**Examples:**
• "Map ['Full Name', 'Date of Birth'] to keys ['first_name', 'last_name', 'dob'] for a KYC Form"

**Common workflows:**
1. form_map_fields → form_resolve → form_fill

**Best practices:** Provide form_kind or context to improve accuracy. An 'error' means the model is unavailable or answered with invalid JSON ('raw' holds the answer); an 'info' means there was nothing to map.`

	FormResolveDescription = `Turn a label mapping plus a profile into the concrete values to write.

**When to use:** After form_map_fields, or with a hand-written mapping, to preview exactly what will be filled.

**Why it's useful:** Composite keys are joined with spaces, missing keys become empty values and NOMATCH entries are left out.

**Examples:**
• "Resolve {'Full Name': 'first_name, last_name'} against {'first_name': 'Ada', 'last_name': 'Lovelace'}"

**Common workflows:**
1. form_resolve → review plan → form_fill

**Best practices:** The 'text' output is a human readable listing suitable for flat forms that cannot be filled.`

	// Output Tools
	FormFillDescription = `Write values into a copy of an AcroForm PDF.

**When to use:** You have a plan of field name → value and want a filled PDF.

**Why it's useful:** Never modifies the input; checkboxes accept yes/true/checked/on/x, radio groups accept one of their states, dropdowns accept one of their options.

**Examples:**
• "Fill application.pdf with {'first_name': 'Ada', 'agree': 'yes'}"

**Common workflows:**
1. form_extract_fields → form_fill
2. form_analyze for the whole pipeline in one call

**Best practices:** Output is written to the output directory; on failure the output path must be treated as unusable.`

	FormAnalyzeDescription = `Run the whole pipeline on one document: inspect, extract, map, resolve and fill or export.

**When to use:** You have a PDF and a user profile and want the finished result in one step.

**Why it's useful:** Chooses AcroForm filling or label extraction automatically and reports the stage that stopped processing.

**Examples:**
• "Fill visa.pdf using profile.yaml as a Visa Application"
• "Map only: show me how scanned-invoice.pdf would be filled from my profile"

**Common workflows:**
1. form_list → form_analyze
2. form_analyze with map_only → review → form_fill

**Best practices:** Profiles may be passed inline as JSON or as a JSON/YAML file path inside the configured directory. Set detect_kind to let the server guess the form kind from its labels.`

	FormServerInfoDescription = `Get server configuration, available tools and the forms in the default directory.

**When to use:** Start of a session to learn what the server can do and whether an LLM is configured.

**Why it's useful:** Shows the label extraction ladder, accepted form kinds and whether mapping is available.

**Examples:**
• "What can the form filler do?"

**Best practices:** If mapper_ready is false, configure an API key before using form_map_fields or form_analyze.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"form_list":           FormListDescription,
	"form_inspect":        FormInspectDescription,
	"form_extract_fields": FormExtractFieldsDescription,
	"form_extract_labels": FormExtractLabelsDescription,
	"form_map_fields":     FormMapFieldsDescription,
	"form_resolve":        FormResolveDescription,
	"form_fill":           FormFillDescription,
	"form_analyze":        FormAnalyzeDescription,
	"form_server_info":    FormServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the sorted tool names
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
