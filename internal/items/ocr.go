package items

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

var (
	numberedItem  = regexp.MustCompile(`\b(\d{3,5})\s*[-–]\s+[A-Z]`)
	lineItem      = regexp.MustCompile(`(?m)^\s*(\d{3})\b`)
	catmatPattern = regexp.MustCompile(`\b([1-4]\d{4,5})\b`)
	qtyWithUnit   = regexp.MustCompile(`(?i)\b(\d{2,6})\s*(?:KG|UN|UND|L|M2|M3|CX|PCT|LT|HR|SV|MÊS)\b`)
	largeNumber   = regexp.MustCompile(`\b(\d{4,6})\b`)
	moneyValue    = regexp.MustCompile(`R\$\s*([\d.]+,\d{2})`)
	ndSI          = regexp.MustCompile(`\b(\d{2})/(\d{2})\b`)
	supplierTotal = regexp.MustCompile(`TOTAL\s+FORNECEDOR\s+(?:R[$\s]?\s*)?([\d.,]+)`)
	qtyNearUnit   = regexp.MustCompile(`(?i)\b(\d{1,4})\s*(?:KG|UN|UND|L|M2|CX|PCT|LT|HR|SV|M)\b`)
	smallNumber   = regexp.MustCompile(`\b(\d{1,4})\b`)
	unitPattern   = regexp.MustCompile(`(?i)\b(KG|UN|UND|L|M|M2|M3|CX|PCT|PAR|JG|GL|LT|HR|SV|MÊS)\b`)
)

const (
	contextBefore  = 300
	minQtyDistance = 30
	maxQuantity    = 9999
)

type marker struct {
	number int
	pos    int
	line   int
}

// ParseOCRItems splits OCR text into items. Numbered rows ("00001 - ...")
// are preferred, then CATMAT codes as row anchors. A page with a single
// code but several quantities is split at those quantities when that
// yields exactly two items. Otherwise the whole text is read as one item.
func ParseOCRItems(text string) []model.Item {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	markers := itemMarkers(text)
	codes := catmatCodes(brtext.Squash(text))

	if len(markers) >= 2 {
		if out := splitByMarkers(lines, markers, codes); len(out) > 0 {
			return out
		}
	}
	if len(codes) >= 2 {
		if out := splitByCodes(text, codes); len(out) > 0 {
			return out
		}
	}
	if len(codes) == 1 && hasQuantitySignals(text) {
		if out := splitByQuantities(text, codes[0]); len(out) == 2 {
			return out
		}
	}
	if it := parseItem(text, 1, ""); it != nil {
		return []model.Item{*it}
	}
	return nil
}

// itemMarkers finds item numbers written as "NNN - DESCRIPTION" anywhere,
// plus three-digit numbers that open a line in an item context.
func itemMarkers(text string) []marker {
	var out []marker
	for _, m := range numberedItem.FindAllStringSubmatchIndex(text, -1) {
		n, _ := strconv.Atoi(text[m[2]:m[3]])
		out = append(out, marker{number: n, pos: m[2], line: strings.Count(text[:m[2]], "\n")})
	}
	explicit := len(out)

	for _, m := range lineItem.FindAllStringSubmatchIndex(text, -1) {
		pos := m[2]
		n, _ := strconv.Atoi(text[pos:m[3]])
		if n < 100 || n > 999 || near(out[:explicit], n) {
			continue
		}
		before := strings.ToUpper(text[max(0, pos-50):pos])
		after := strings.ToUpper(text[pos:min(len(text), pos+100)])
		if strings.Contains(before, "R$") || strings.Contains(after[:min(len(after), 10)], "/") {
			continue
		}
		head := after[:min(len(after), 50)]
		if !strings.Contains(before, "ITEM") && !containsAny(head, "KG", "UN", "UND", "R$", "DESCRI") {
			continue
		}
		out = append(out, marker{number: n, pos: pos, line: strings.Count(text[:pos], "\n")})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	seen := map[int]bool{}
	uniq := out[:0]
	for _, m := range out {
		if !seen[m.number] {
			seen[m.number] = true
			uniq = append(uniq, m)
		}
	}
	return uniq
}

func near(ms []marker, n int) bool {
	for _, m := range ms {
		if m.number-n < 5 && n-m.number < 5 {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// catmatCodes returns the distinct five- or six-digit material codes,
// which start with 1, 3 or 4.
func catmatCodes(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range catmatPattern.FindAllStringSubmatch(text, -1) {
		c := m[1]
		if c[0] == '2' || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func splitByMarkers(lines []string, markers []marker, codes []string) []model.Item {
	var out []model.Item
	seen := map[int]bool{}
	for i, m := range markers {
		end := len(lines)
		if i+1 < len(markers) {
			end = markers[i+1].line
		}
		if end <= m.line {
			continue
		}
		seg := strings.Join(lines[m.line:end], "\n")

		code := ""
		for _, c := range codes {
			if strings.Contains(seg, c) {
				code = c
				break
			}
		}
		if code == "" && len(codes) > len(out) {
			code = codes[len(out)]
		}
		if it := parseItem(seg, m.number, code); it != nil && !seen[it.Number] {
			seen[it.Number] = true
			out = append(out, *it)
		}
	}
	return out
}

func splitByCodes(text string, codes []string) []model.Item {
	type anchor struct {
		code string
		pos  int
	}
	var anchors []anchor
	for _, c := range codes {
		if p := strings.Index(text, c); p >= 0 {
			anchors = append(anchors, anchor{c, p})
		}
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].pos < anchors[j].pos })

	var out []model.Item
	for i, a := range anchors {
		end := len(text)
		if i+1 < len(anchors) {
			end = anchors[i+1].pos
		}
		if it := parseItem(text[a.pos:end], i+1, a.code); it != nil {
			out = append(out, *it)
		}
	}
	return out
}

// hasQuantitySignals reports whether a single-code page looks like it
// holds more than one row: repeated quantities or several distinct prices.
func hasQuantitySignals(text string) bool {
	full := brtext.Squash(text)
	if len(qtyWithUnit.FindAllString(full, -1)) >= 2 {
		return true
	}
	prices := map[string]bool{}
	for _, m := range moneyValue.FindAllStringSubmatch(full, -1) {
		prices[m[1]] = true
	}
	return len(prices) >= 3
}

func splitByQuantities(text, code string) []model.Item {
	type qty struct {
		value float64
		pos   int
	}
	var found []qty
	for _, m := range qtyWithUnit.FindAllStringSubmatchIndex(text, -1) {
		v, _ := strconv.Atoi(text[m[2]:m[3]])
		found = append(found, qty{float64(v), m[0]})
	}
	for _, m := range largeNumber.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[2]:m[3]]
		if raw == code || (len(raw) == 6 && (raw[0] == '3' || raw[0] == '4')) {
			continue
		}
		before := text[max(0, m[0]-15):m[0]]
		after := text[m[1]:min(len(text), m[1]+5)]
		if strings.Contains(before, "R$") || strings.Contains(before[max(0, len(before)-5):], ".") || strings.Contains(after, "/") {
			continue
		}
		v, _ := strconv.Atoi(raw)
		if v >= 1 && v <= 99999 {
			found = append(found, qty{float64(v), m[0]})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	var picked []qty
	for _, q := range found {
		dup := false
		for _, p := range picked {
			if (p.value == q.value && q.pos-p.pos < 100) || q.pos-p.pos < minQtyDistance {
				dup = true
				break
			}
		}
		if !dup {
			picked = append(picked, q)
		}
	}
	if len(picked) < 2 {
		return nil
	}
	picked = picked[:2]

	var out []model.Item
	for i, q := range picked {
		start := max(0, q.pos-contextBefore)
		end := len(text)
		if i+1 < len(picked) {
			end = picked[i+1].pos
		}
		it := parseItem(text[start:end], i+1, code)
		if it == nil {
			continue
		}
		if it.Quantity == nil || abs(*it.Quantity-q.value) > 0.1 {
			it.Quantity = model.Float(q.value)
		}
		out = append(out, *it)
	}
	return out
}

// parseItem reads one item from its text segment. A forced code wins over
// the first code found. Segments with neither description, code nor total
// yield nil.
func parseItem(seg string, number int, forcedCode string) *model.Item {
	full := brtext.Squash(seg)
	it := &model.Item{Number: number, Source: model.SourceOCR}

	code := forcedCode
	if code == "" {
		if codes := catmatCodes(full); len(codes) > 0 {
			code = codes[0]
		}
	}
	it.Code = model.Str(code)

	var ndParts [2]string
	for _, m := range ndSI.FindAllStringSubmatchIndex(full, -1) {
		if (m[0] > 0 && full[m[0]-1] == '/') || (m[1] < len(full) && full[m[1]] == '/') {
			continue
		}
		ndParts = [2]string{full[m[2]:m[3]], full[m[4]:m[5]]}
		it.NatureSub = model.Str(ndParts[0] + "/" + ndParts[1])
		break
	}

	var prices []float64
	for _, m := range moneyValue.FindAllStringSubmatch(full, -1) {
		if v := brtext.ParseMoney(m[1]); v != nil {
			prices = append(prices, *v)
		}
	}
	sort.Float64s(prices)
	switch {
	case len(prices) >= 2:
		it.UnitPrice = model.Float(prices[0])
		it.TotalPrice = model.Float(prices[len(prices)-1])
	case len(prices) == 1:
		it.TotalPrice = model.Float(prices[0])
	}
	if m := supplierTotal.FindStringSubmatch(full); m != nil {
		if v := parseOCRAmount(m[1]); v != nil {
			it.TotalPrice = v
		}
	}

	it.Quantity = quantityOf(full, code, ndParts)

	tail := full
	if p := strings.Index(full, code); code != "" && p >= 0 {
		tail = full[p+len(code):]
	}
	if m := unitPattern.FindStringSubmatch(tail); m != nil {
		it.Unit = model.Str(strings.ToUpper(m[1]))
	}

	it.Description = model.Str(ReconstructDescription(seg, code))
	if it.Description == nil && it.Code == nil && it.TotalPrice == nil {
		return nil
	}
	return it
}

// parseOCRAmount reads a total where OCR turned the thousands dot into a
// comma: every comma but the last becomes a dot.
func parseOCRAmount(raw string) *float64 {
	if strings.Count(raw, ",") >= 2 {
		i := strings.LastIndex(raw, ",")
		raw = strings.ReplaceAll(raw[:i], ",", ".") + raw[i:]
	}
	return brtext.ParseMoney(raw)
}

// quantityOf prefers a number written next to a unit. Failing that, the
// first small number between the code and the first price is taken.
func quantityOf(full, code string, nd [2]string) *float64 {
	for _, m := range qtyNearUnit.FindAllStringSubmatch(full, -1) {
		if v, err := strconv.Atoi(m[1]); err == nil && v >= 1 && v <= maxQuantity {
			return model.Float(float64(v))
		}
	}
	if code == "" {
		return nil
	}
	start := strings.Index(full, code)
	if start < 0 {
		return nil
	}
	start += len(code)
	end := strings.Index(full[start:], "R$")
	if end < 0 {
		return nil
	}
	span := full[start : start+end]
	for _, m := range smallNumber.FindAllStringSubmatchIndex(span, -1) {
		raw := span[m[2]:m[3]]
		if raw == nd[0] || raw == nd[1] {
			continue
		}
		if strings.Contains(span[max(0, m[0]-3):m[0]], ".") || (m[1] < len(span) && span[m[1]] == '.') {
			continue
		}
		if v, _ := strconv.Atoi(raw); v >= 1 {
			return model.Float(float64(v))
		}
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
