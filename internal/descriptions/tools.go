package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	ExtractProcessDescription = `Extract the structured data of a military procurement process PDF.

**When to use:** You have the PDF of a complete acquisition process (capa, requisição, notas de crédito, SICAF/CADIN, contrato, despachos) and need its facts as data.

**What you get:** Identification (NUP, process type, unit, supplier, CNPJ, empenho type, instrument), the requested items table, every credit note with balance and days left to the empenho deadline, supplier certificates, contract cross-checks and dispatches. Missing values are null, never guessed.

**Examples:**
• Review a process: "Extract /data/processos/64123-000123.pdf and list the credit notes that expire this week"
• Check a supplier: "Extract processo.pdf and compare the SICAF CNPJ with the contract"
• Human summary: call with summary=true for a short digest instead of the full document

**Common workflows:**
1. Triage: classify_pages → extract_process → review metadata.diagnostics
2. Deadline control: extract_process → read credit_notes[].days_remaining → flag negatives

**Best practices:** Check metadata.ocr_available first; scanned pages produce no text without OCR. Diagnostics list every step that degraded.`

	ClassifyPagesDescription = `Bucket every page of a process PDF by document type without parsing the sections.

**When to use:** To see what a process contains before extracting, or to find the pages of one document (for example the contract) quickly.

**What you get:** For each category (cover, opening_term, checklist, requisition, credit_note, sicaf, cadin, consolidated_check, dispatch, contract, edital, unclassified) the list of page numbers, plus page counts.

**Examples:**
• "Which pages of processo.pdf are credit notes?"
• "Does this process include a contract?"

**Best practices:** A page with too little text is reported as unclassified; enable OCR on the server for scanned files.`

	ExtractorInfoDescription = `Report the extractor's version, OCR availability and calibration thresholds.

**When to use:** Before the first extraction in a session, or when results look incomplete.

**What you get:** Server name and version, whether the OCR engine is usable, the OCR language and resolution, the thresholds that decide when a page needs OCR, and the available tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"extract_process": ExtractProcessDescription,
	"classify_pages":  ClassifyPagesDescription,
	"extractor_info":  ExtractorInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in alphabetical order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
