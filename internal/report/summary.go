package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgHiBlack)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
)

// Summary prints a short human-readable digest of res.
func Summary(w io.Writer, res *model.Result) {
	md := res.Metadata
	headerColor.Fprintf(w, "%s\n", md.SourceFile)
	if md.Error != nil {
		errColor.Fprintf(w, "  error: %s\n", *md.Error)
		return
	}

	id := res.Identification
	field(w, "NUP", model.Val(id.NUP))
	field(w, "Type", model.Val(id.Type))
	field(w, "Instrument", model.Val(id.Instrument))
	field(w, "Supplier", supplierLine(id))
	field(w, "Pages", fmt.Sprintf("%d (%d with text, %d OCR)", md.TotalPages, md.PagesWithText, md.PagesOCR))
	if cats := categoryLine(md.Categories); cats != "" {
		field(w, "Categories", cats)
	}
	field(w, "Items", fmt.Sprintf("%d", len(res.Items)))

	for _, nc := range res.CreditNotes {
		line := model.Val(nc.Number)
		if nc.Balance != nil {
			line += " " + brtext.FormatMoney(*nc.Balance)
		}
		c := okColor
		if nc.DaysRemaining != nil {
			line += fmt.Sprintf(" (%d days)", *nc.DaysRemaining)
			if *nc.DaysRemaining < 0 {
				c = errColor
			} else if *nc.DaysRemaining <= 7 {
				c = warnColor
			}
		}
		labelColor.Fprintf(w, "  %-12s ", "Credit note")
		c.Fprintln(w, line)
	}

	for _, check := range res.ContractChecks {
		labelColor.Fprintf(w, "  %-12s ", check.Field)
		statusColor(check.Status).Fprintln(w, check.Message)
	}

	if len(res.Dispatches) > 0 {
		field(w, "Dispatches", fmt.Sprintf("%d", len(res.Dispatches)))
	}
	for _, d := range md.Diagnostics {
		warnColor.Fprintf(w, "  ! %s\n", d)
	}
}

func field(w io.Writer, label, value string) {
	if value == "" {
		value = "-"
	}
	labelColor.Fprintf(w, "  %-12s ", label)
	fmt.Fprintln(w, value)
}

func supplierLine(id model.Identification) string {
	parts := []string{}
	if s := model.Val(id.Supplier); s != "" {
		parts = append(parts, s)
	}
	if c := model.Val(id.CNPJ); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, " / ")
}

func categoryLine(cats map[model.Category][]int) string {
	var parts []string
	for c, pages := range cats {
		if len(pages) > 0 && c != model.CategoryUnclassified {
			parts = append(parts, fmt.Sprintf("%s=%d", c, len(pages)))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func statusColor(s model.CheckStatus) *color.Color {
	switch s {
	case model.CheckGreen:
		return okColor
	case model.CheckRed:
		return errColor
	default:
		return warnColor
	}
}
