// Package items rebuilds the requested-items table of a requisition, either
// from the cell grid of a native page or from the flat text of an OCR page.
package items

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

type column int

const (
	colItem column = iota
	colCode
	colDescription
	colUnit
	colQuantity
	colNatureSub
	colUnitPrice
	colTotalPrice
)

// columnSpecs is tried in order; a header cell is bound to the first
// column that is not yet mapped and whose pattern matches.
var columnSpecs = []struct {
	col column
	re  *regexp.Regexp
}{
	{colItem, regexp.MustCompile(`\bITEM\b`)},
	{colCode, regexp.MustCompile(`CATMAT|CATSERV|COD`)},
	{colDescription, regexp.MustCompile(`DESCRI`)},
	{colUnit, regexp.MustCompile(`\bUND\b|\bUN\b|UNID`)},
	{colQuantity, regexp.MustCompile(`\bQTD\b|\bQUANT`)},
	{colNatureSub, regexp.MustCompile(`\bND\b.*S\.?I\.?|\bND\s*/\s*S`)},
	{colUnitPrice, regexp.MustCompile(`P[.\s]*UNT|UNITARIO|V[.\s]*UNIT`)},
	{colTotalPrice, regexp.MustCompile(`P[.\s]*TOTAL|V[.\s]*TOTAL`)},
}

var (
	headerHints   = []string{"QTD", "UND", "UNT", "TOTAL", "ND", "DESCRI"}
	summaryCell   = regexp.MustCompile(`(?i)TOTAL|ITEM`)
	firstNumber   = regexp.MustCompile(`\d+`)
	minFallbackLn = 15
	continuations = 2
)

// ParseNativeTable reads items from a grid whose header row names an ITEM
// column. Rows without an item number are treated as continuation lines of
// the item above them.
func ParseNativeTable(rows [][]string) []model.Item {
	if len(rows) < 2 {
		return nil
	}
	header := headerRow(rows)
	if header < 0 {
		return nil
	}
	cols := mapColumns(rows[header])
	itemCol, ok := cols[colItem]
	if !ok {
		return nil
	}

	var out []model.Item
	for i := header + 1; i < len(rows); i++ {
		it, ok := parseRow(rows[i], cols, itemCol)
		if !ok {
			continue
		}
		for j := i + 1; j < len(rows) && j <= i+continuations; j++ {
			next := strings.TrimSpace(cell(rows[j], itemCol))
			if next != "" && !strings.HasPrefix(strings.ToUpper(next), "TOTAL") {
				break
			}
			if it.Code == nil {
				it.Code = cellValue(rows[j], cols, colCode)
			}
			if it.Unit == nil {
				it.Unit = cellValue(rows[j], cols, colUnit)
			}
			if it.Quantity == nil {
				if q := cellValue(rows[j], cols, colQuantity); q != nil {
					it.Quantity = brtext.ParseMoney(*q)
				}
			}
		}
		out = append(out, it)
	}
	return out
}

func headerRow(rows [][]string) int {
	for i, row := range rows {
		joined := brtext.Fold(strings.Join(row, " "))
		if !strings.Contains(joined, "ITEM") {
			continue
		}
		for _, h := range headerHints {
			if strings.Contains(joined, h) {
				return i
			}
		}
	}
	return -1
}

func mapColumns(header []string) map[column]int {
	cols := make(map[column]int)
	for idx, raw := range header {
		name := brtext.Fold(strings.ReplaceAll(raw, "\n", " "))
		for _, spec := range columnSpecs {
			if _, taken := cols[spec.col]; taken {
				continue
			}
			if spec.re.MatchString(name) {
				cols[spec.col] = idx
				break
			}
		}
	}
	return cols
}

func parseRow(row []string, cols map[column]int, itemCol int) (model.Item, bool) {
	raw := strings.TrimSpace(cell(row, itemCol))
	if raw == "" || summaryCell.MatchString(raw) {
		return model.Item{}, false
	}
	n, err := strconv.Atoi(firstNumber.FindString(raw))
	if err != nil || n <= 0 {
		return model.Item{}, false
	}

	it := model.Item{
		Number:      n,
		Code:        cellValue(row, cols, colCode),
		Description: cellValue(row, cols, colDescription),
		Unit:        cellValue(row, cols, colUnit),
		Source:      model.SourceNative,
	}
	if it.Description == nil {
		for i, c := range row {
			c = strings.TrimSpace(c)
			if i != itemCol && utf8.RuneCountInString(c) > minFallbackLn {
				it.Description = model.Str(brtext.Squash(c))
				break
			}
		}
	} else {
		it.Description = model.Str(brtext.Squash(*it.Description))
	}
	if nd := cellValue(row, cols, colNatureSub); nd != nil {
		it.NatureSub = model.Str(strings.Join(strings.Fields(*nd), ""))
	}
	if q := cellValue(row, cols, colQuantity); q != nil {
		it.Quantity = brtext.ParseMoney(*q)
	}
	if p := cellValue(row, cols, colUnitPrice); p != nil {
		it.UnitPrice = brtext.ParseMoney(*p)
	}
	if p := cellValue(row, cols, colTotalPrice); p != nil {
		it.TotalPrice = brtext.ParseMoney(*p)
	}
	return it, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cellValue(row []string, cols map[column]int, c column) *string {
	idx, ok := cols[c]
	if !ok {
		return nil
	}
	return model.Str(cell(row, idx))
}
