package brtext

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Location is the fixed UTC-4 offset used for every "today" comparison.
var Location = time.FixedZone("UTC-4", -4*60*60)

var shortMonths = map[string]time.Month{
	"JAN": time.January, "FEV": time.February, "MAR": time.March,
	"ABR": time.April, "MAI": time.May, "JUN": time.June,
	"JUL": time.July, "AGO": time.August, "SET": time.September,
	"OUT": time.October, "NOV": time.November, "DEZ": time.December,
}

var longMonths = map[string]time.Month{
	"janeiro": time.January, "fevereiro": time.February, "março": time.March,
	"marco": time.March, "abril": time.April, "maio": time.May,
	"junho": time.June, "julho": time.July, "agosto": time.August,
	"setembro": time.September, "outubro": time.October,
	"novembro": time.November, "dezembro": time.December,
}

type dateLayout struct {
	re    *regexp.Regexp
	build func(m []string) (time.Time, bool)
}

// Layouts are tried in order; each match is anchored at the start only.
var dateLayouts = []dateLayout{
	{regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`), func(m []string) (time.Time, bool) {
		return numericDate(m[1], m[2], m[3])
	}},
	{regexp.MustCompile(`^(\d{1,2})/([A-Za-z]{3})/(\d{4})`), func(m []string) (time.Time, bool) {
		return namedDate(m[1], m[2], m[3])
	}},
	{regexp.MustCompile(`(?i)^(\d{1,2})\s+de\s+(\p{L}+)\s+de\s+(\d{4})`), func(m []string) (time.Time, bool) {
		month, ok := longMonths[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, false
		}
		return validDate(m[1], month, m[3])
	}},
	{regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]{3})\s+(\d{4})`), func(m []string) (time.Time, bool) {
		return namedDate(m[1], m[2], m[3])
	}},
	{regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]{3})\s+(\d{2})\b`), func(m []string) (time.Time, bool) {
		return namedDate(m[1], m[2], "20"+m[3])
	}},
	{regexp.MustCompile(`^(\d{2})([A-Za-z]{3})(\d{4})`), func(m []string) (time.Time, bool) {
		return namedDate(m[1], m[2], m[3])
	}},
	{regexp.MustCompile(`^(\d{2})([A-Za-z]{3})(\d{2})\b`), func(m []string) (time.Time, bool) {
		return namedDate(m[1], m[2], "20"+m[3])
	}},
	{regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})\b`), func(m []string) (time.Time, bool) {
		return numericDate(m[1], m[2], "20"+m[3])
	}},
}

// ParseDate recognizes the date spellings used across the process
// documents and returns the date at midnight in Location. Unrecognized or
// impossible dates yield nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, l := range dateLayouts {
		m := l.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if t, ok := l.build(m); ok {
			return &t
		}
	}
	return nil
}

func numericDate(day, month, year string) (time.Time, bool) {
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return time.Time{}, false
	}
	return validDate(day, time.Month(mo), year)
}

func namedDate(day, month, year string) (time.Time, bool) {
	mo, ok := shortMonths[strings.ToUpper(month)]
	if !ok {
		return time.Time{}, false
	}
	return validDate(day, mo, year)
}

func validDate(day string, month time.Month, year string) (time.Time, bool) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	t := time.Date(y, month, d, 0, 0, 0, 0, Location)
	if t.Day() != d || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// Today returns midnight of the current day in Location.
func Today(now time.Time) time.Time {
	n := now.In(Location)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, Location)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// FormatDate renders t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
