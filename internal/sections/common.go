// Package sections turns the concatenated text of each classified section
// into typed fields. A pattern that does not match leaves its field nil;
// parsers never fail on missing data.
package sections

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

var (
	nupPattern        = regexp.MustCompile(`\d{5}\.\d{6}/\d{4}-\d{2}`)
	cnpjPattern       = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)
	labeledCNPJ       = regexp.MustCompile(`CNPJ:\s*(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2})`)
	creditNoteNumber  = regexp.MustCompile(`20\d{2}NC\d{6}`)
	trailingCNPJLabel = regexp.MustCompile(`\s*[–-]\s*CNPJ:.*$`)
)

// find returns the trimmed first submatch of re in text, or nil.
func find(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	for _, g := range m[1:] {
		if g != "" {
			return model.Str(g)
		}
	}
	return nil
}

// findSquashed is find with internal whitespace collapsed.
func findSquashed(re *regexp.Regexp, text string) *string {
	v := find(re, text)
	if v == nil {
		return nil
	}
	return model.Str(brtext.Squash(*v))
}

// findFirst tries each pattern in turn.
func findFirst(text string, res ...*regexp.Regexp) *string {
	for _, re := range res {
		if v := find(re, text); v != nil {
			return v
		}
	}
	return nil
}

// uniqueMatches returns the distinct matches of re in order of appearance.
func uniqueMatches(re *regexp.Regexp, text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range re.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// CreditNoteNumbers lists the distinct credit-note numbers in text.
func CreditNoteNumbers(text string) []string {
	return uniqueMatches(creditNoteNumber, text)
}

// window returns the text from before characters ahead of the byte offset
// start to after characters past it, and the byte offset where it ends.
func window(text string, start, before, after int) (string, int) {
	lo := start
	for i := 0; i < before && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := start
	for i := 0; i < after && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return text[lo:hi], hi
}

// stripSupplierSuffix removes a "– CNPJ: ..." tail glued to a company name.
func stripSupplierSuffix(name string) string {
	return strings.TrimSpace(trailingCNPJLabel.ReplaceAllString(name, ""))
}
