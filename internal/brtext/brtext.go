// Package brtext holds the Brazilian-Portuguese text helpers shared by the
// section parsers: money and date parsing, accent folding and the small
// normalizations applied to identifiers found in procurement documents.
package brtext

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	plainNumber = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	spaceRun    = regexp.MustCompile(`\s+`)
	titleCaser  = cases.Title(language.BrazilianPortuguese)
	moneyPrint  = message.NewPrinter(language.BrazilianPortuguese)
)

// FormatMoney renders v the way ParseMoney reads it, e.g. "R$ 1.999,80".
func FormatMoney(v float64) string {
	return "R$ " + moneyPrint.Sprintf("%.2f", v)
}

// ParseMoney parses a Brazilian formatted amount such as "1.999,80".
// A leading currency marker is tolerated. Malformed input yields nil.
func ParseMoney(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if !plainNumber.MatchString(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Fold uppercases s and strips combining marks so that "Nota de Crédito"
// and "NOTA DE CREDITO" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(out)
}

// Squash collapses every whitespace run into a single space and trims.
func Squash(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// Clean normalizes extracted page text: non-breaking spaces become plain
// spaces and carriage returns are dropped.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Capitalize returns s with an uppercase first letter and the rest lowercase.
func Capitalize(s string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(s)))
}

// IsUpperWord reports whether w has at least one cased letter and no
// lowercase letters.
func IsUpperWord(w string) bool {
	cased := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// NormalizeAuctionNumber brings a Pregão Eletrônico number into the
// five-digit "90NNN/YYYY" form. Five-digit numbers are left untouched.
func NormalizeAuctionNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	nr, year, ok := strings.Cut(raw, "/")
	if !ok || !IsDigits(nr) {
		return raw
	}
	switch {
	case len(nr) == 4 && nr[0] == '9':
		nr = "90" + nr[1:]
	case len(nr) <= 3:
		nr = "90" + strings.Repeat("0", 3-len(nr)) + nr
	}
	return nr + "/" + year
}
