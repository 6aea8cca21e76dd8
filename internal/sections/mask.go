package sections

import (
	"regexp"
	"strings"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

var (
	maskFieldHeader = regexp.MustCompile(`(?i)[67]\.\s*(?:Material|Descri[çc][ãa]o|Servi[çc]o)[^\n]*\n`)
	numberedField   = regexp.MustCompile(`^\d+\.`)
	footerStart     = regexp.MustCompile(`(?i)^Este documento`)

	ndMarker       = regexp.MustCompile(`\bND\s`)
	piMarker       = regexp.MustCompile(`\bPI\s`)
	peMarker       = regexp.MustCompile(`\bPE\s`)
	contractMarker = regexp.MustCompile(`(?i)\bCONT(?:RATO)?\s`)
	peNumbered     = regexp.MustCompile(`\bPE\s+\d`)
	uasgNumbered   = regexp.MustCompile(`\bUASG\s+\d`)
)

// ExtractRequesterMask returns the commitment description the requester
// pre-assembled in field 6 or 7, or nil. A block qualifies only when it
// cites the primary credit note together with an ND marker and an
// instrument or budget marker.
func ExtractRequesterMask(text, creditNote string) *string {
	if creditNote == "" {
		return nil
	}

	if block, ok := numberedFieldBlock(text); ok && strings.Contains(block, creditNote) {
		hasInstrument := piMarker.MatchString(block) || peMarker.MatchString(block) || contractMarker.MatchString(block)
		if ndMarker.MatchString(block) && hasInstrument {
			return model.Str(brtext.Squash(block))
		}
	}

	around := regexp.MustCompile(`[^\n]*` + regexp.QuoteMeta(creditNote) + `[^\n]*(?:\n[^\n]+){0,6}`)
	candidate := around.FindString(text)
	if candidate == "" {
		return nil
	}
	joined := brtext.Squash(candidate)
	hasInstrument := peNumbered.MatchString(joined) || uasgNumbered.MatchString(joined) || contractMarker.MatchString(joined)
	if ndMarker.MatchString(joined) && hasInstrument {
		return &joined
	}
	return nil
}

// numberedFieldBlock returns the body of field 6 or 7, from the line after
// its heading up to the next numbered field or the process footer.
func numberedFieldBlock(text string) (string, bool) {
	loc := maskFieldHeader.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	lines := strings.Split(text[loc[1]:], "\n")
	var block []string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if i > 0 && (numberedField.MatchString(trimmed) || footerStart.MatchString(trimmed)) {
			break
		}
		block = append(block, line)
	}
	body := strings.TrimSpace(strings.Join(block, "\n"))
	return body, body != ""
}
