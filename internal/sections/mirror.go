package sections

import (
	"regexp"
	"strings"

	"github.com/a3tai/process-extractor/internal/model"
)

// OCR keeps labels and values on separate lines, so most mirror patterns
// span newlines.
var (
	mirrorSource   = regexp.MustCompile(`(?is)Fonte.{0,80}?(\d{10})`)
	mirrorND       = regexp.MustCompile(`(?is)(?:Natureza|ND).{0,60}?(\d{6})`)
	mirrorUGR      = regexp.MustCompile(`(?is)UGR.{0,40}?(\d{6})`)
	mirrorPI       = regexp.MustCompile(`(?is)(?:Plano\s+Interno|PI).{0,20}?([A-Z0-9]{6,15})`)
	mirrorDeadline = regexp.MustCompile(`[Pp]razo\s+(?:de\s+)?[Ee]mpenho\s+(\d{1,2}\s*[\p{L}\d_]{3}\s*\d{2,4})`)
	mirrorSphere   = regexp.MustCompile(`(?i)\bESF\s+(\d)\b`)
	mirrorPTRES    = regexp.MustCompile(`(?i)\bPTRES\s+(\d{6})\b`)
)

// IsMirrorPage reports whether an OCR page looks like the budget mirror of
// a credit note: at least two of source, ND, PI and UGR labels.
func IsMirrorPage(text string) bool {
	up := strings.ToUpper(text)
	hits := 0
	for _, ok := range []bool{
		strings.Contains(up, "FONTE") && strings.Contains(up, "RECURSO"),
		strings.Contains(up, "NATUREZA DA DESPESA") || strings.Contains(up, "ND "),
		strings.Contains(up, "PLANO INTERNO") || strings.Contains(up, "PI "),
		strings.Contains(up, "UGR"),
	} {
		if ok {
			hits++
		}
	}
	return hits >= 2
}

// MirrorText joins the OCR pages that look like credit-note mirrors.
func MirrorText(pages []model.Page) string {
	var parts []string
	for _, p := range pages {
		if p.Source == model.SourceOCR && IsMirrorPage(p.Text) {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ParseCreditNoteMirror reads the budget fields of a mirror page. It
// returns nil when none is found.
func ParseCreditNoteMirror(text string) *model.CreditNoteMirror {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	m := &model.CreditNoteMirror{
		Source:   find(mirrorSource, text),
		ND:       find(mirrorND, text),
		UGR:      find(mirrorUGR, text),
		PI:       find(mirrorPI, text),
		Deadline: find(mirrorDeadline, text),
		Sphere:   find(mirrorSphere, text),
		PTRES:    find(mirrorPTRES, text),
	}
	if *m == (model.CreditNoteMirror{}) {
		return nil
	}
	return m
}
