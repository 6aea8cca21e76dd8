package items

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/process-extractor/internal/brtext"
)

var (
	pipes          = regexp.MustCompile(`\|`)
	quoting        = regexp.MustCompile(`["'\[\]<>]`)
	noiseToken     = regexp.MustCompile(`\S*[ªº;%!@#&=]+\S*`)
	moneyToken     = regexp.MustCompile(`R\$\s*[\d.,]+`)
	centsFragment  = regexp.MustCompile(`,\d{2}\b`)
	longNumber     = regexp.MustCompile(`\b\d{3,}\b`)
	trailingDigits = regexp.MustCompile(`[\d.,\s]+$`)

	itemNumberToken = regexp.MustCompile(`\b\d{3,5}\b`)
	ndToken         = regexp.MustCompile(`\d{2}/\d{2}`)
	unitToken       = regexp.MustCompile(`\b(?:KG|UND|UN|CX|PCT|LT|HR|SV|M2|M3)\b`)
	leadingMarker   = regexp.MustCompile(`^\s*\d{1,5}\s*[-–]\s*`)
	codeLabel       = regexp.MustCompile(`(?i)\b(?:CATMAT|CATSERV|C[ÓO]D\.?)\s*:?\s*$`)
	trailingLink    = regexp.MustCompile(`\s+(?:de|do|da|e|DE|DO|DA|E)\s*$`)
	doubledLink     = regexp.MustCompile(`\b(DE|DO|DA)\s+(?:de|do|da)\s+`)
)

// Lines whose first word starts with one of these close the description.
var stopWords = []string{
	"TOTAL", "JUSTIFICATIVA", "AQUISICAO", "MOTIVO", "QUANTIDADE",
	"FORNECEDOR", "CNPJ", "APROVISIONAMENT", "CHEFE", "ORDENADOR",
	"P.UNT", "CATMAT", "CATSER", "SEMESTRAL", "CONFORME", "ORIENTAC",
	"SUFICIENTE", "CONTRATADA",
}

var connectors = map[string]bool{
	"DE": true, "DO": true, "DA": true, "DOS": true, "DAS": true,
	"E": true, "COM": true, "PARA": true, "EM": true, "NO": true, "NA": true,
}

// CleanDescription strips OCR debris from a description fragment: table
// rules, quoting, money, item numbers and stray symbols. Fragments shorter
// than three characters come back empty.
func CleanDescription(s string) string {
	s = pipes.ReplaceAllString(s, " ")
	s = quoting.ReplaceAllString(s, " ")
	s = noiseToken.ReplaceAllString(s, " ")
	s = moneyToken.ReplaceAllString(s, " ")
	s = centsFragment.ReplaceAllString(s, " ")
	s = longNumber.ReplaceAllString(s, " ")
	s = brtext.Squash(s)
	s = strings.TrimSpace(trailingDigits.ReplaceAllString(s, ""))
	if utf8.RuneCountInString(s) < 3 {
		return ""
	}
	return s
}

// ReconstructDescription rebuilds an item description around its CATMAT
// code. The rest of the code's line is taken first, or the text before
// the code when nothing follows it. The uppercase words of the following
// lines are appended until a lowercase word, a stop word or the supplier
// total is reached.
func ReconstructDescription(text, code string) string {
	if code == "" {
		return ""
	}
	var parts []string
	capturing := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < 3 {
			continue
		}

		if idx := strings.Index(line, code); idx >= 0 && !capturing {
			desc := codeLineRemainder(line[idx+len(code):])
			if desc == "" {
				desc = codeLinePrefix(line[:idx])
			}
			if desc != "" {
				parts = append(parts, desc)
			}
			capturing = true
			continue
		}
		if !capturing {
			continue
		}

		upper := strings.ToUpper(line)
		if strings.Contains(upper, "TOTAL") && strings.Contains(upper, "FORNECEDOR") {
			break
		}
		fields := strings.Fields(line)
		if stops(fields[0]) {
			break
		}

		words, ended := leadingUpperWords(fields)
		if frag := CleanDescription(strings.Join(words, " ")); frag != "" {
			parts = append(parts, frag)
		}
		if ended {
			break
		}
	}

	desc := strings.Join(parts, " ")
	desc = trailingLink.ReplaceAllString(desc, "")
	desc = doubledLink.ReplaceAllString(desc, "$1 ")
	return strings.TrimSpace(desc)
}

// leadingUpperWords returns the uppercase run that opens fields. ended
// reports that a lowercase word cut the run short.
func leadingUpperWords(fields []string) (words []string, ended bool) {
	for _, w := range fields {
		bare := strings.Trim(w, ".,;:")
		switch {
		case brtext.IsUpperWord(bare) && !brtext.IsDigits(bare):
		case connectors[strings.ToUpper(bare)] && len(words) > 0:
		case brtext.IsDigits(bare) && len(words) > 0:
		default:
			return words, true
		}
		words = append(words, w)
	}
	return words, false
}

func codeLineRemainder(rest string) string {
	rest = unitToken.ReplaceAllString(rest, " ")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimLeft(rest, "|"))
	rest = itemNumberToken.ReplaceAllString(rest, " ")
	rest = ndToken.ReplaceAllString(rest, " ")
	rest = moneyToken.ReplaceAllString(rest, " ")
	return CleanDescription(rest)
}

func codeLinePrefix(prefix string) string {
	prefix = leadingMarker.ReplaceAllString(prefix, "")
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "|")
	prefix = codeLabel.ReplaceAllString(strings.TrimSpace(prefix), "")
	return CleanDescription(prefix)
}

func stops(first string) bool {
	f := brtext.Fold(first)
	for _, w := range stopWords {
		if strings.HasPrefix(f, w) {
			return true
		}
	}
	return false
}
