package sections

import (
	"regexp"
)

var imageSupplier = regexp.MustCompile(`(?:Nome\s+da\s+[Ee]mpresa|[Ee]mpresa)\s*:\s*([^\n]+)`)

// ParseSupplierFromText reads the supplier name and CNPJ from OCR text of
// an image embedded in the requisition. Names of three characters or less
// are OCR noise and ignored.
func ParseSupplierFromText(text string) (supplier, cnpj *string) {
	cnpj = find(labeledCNPJ, text)
	if v := find(imageSupplier, text); v != nil {
		name := stripSupplierSuffix(*v)
		if len([]rune(name)) > 3 {
			supplier = &name
		}
	}
	return supplier, cnpj
}

// ParseSupplierFromTexts scans texts in order until both values are found.
func ParseSupplierFromTexts(texts []string) (supplier, cnpj *string) {
	for _, t := range texts {
		s, c := ParseSupplierFromText(t)
		if supplier == nil {
			supplier = s
		}
		if cnpj == nil {
			cnpj = c
		}
		if supplier != nil && cnpj != nil {
			break
		}
	}
	return supplier, cnpj
}
