package sections

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

// GenericND is the catch-all nature of expense; a specific code is
// preferred as the primary one when a note has several.
const GenericND = "339000"

// Default window around a credit-note number in the generic layout.
const (
	DefaultWindowBefore = 300
	DefaultWindowAfter  = 3000
)

// Options carries the reference day and the generic-layout window.
type Options struct {
	Today        time.Time
	WindowBefore int
	WindowAfter  int
}

func (o Options) withDefaults() Options {
	if o.Today.IsZero() {
		o.Today = brtext.Today(time.Now())
	}
	if o.WindowBefore <= 0 {
		o.WindowBefore = DefaultWindowBefore
	}
	if o.WindowAfter <= 0 {
		o.WindowAfter = DefaultWindowAfter
	}
	return o
}

var terminalMarkers = []string{"DEMONSTRA-DIARIO", "DEMONSTRA-CONRAZAO", "DOCUMENTO WEB", "UG/GESTAO EMITENTE"}

var (
	termWebNumber   = regexp.MustCompile(`(?i)DOCUMENTO\s+WEB\s*:\s*(20\d{2}NC\d{6})`)
	termSIAFIRef    = regexp.MustCompile(`(?i)NUMERO\s*:\s*(20\d{2}R[O0]?\d+)`)
	termEmission    = regexp.MustCompile(`(?i)DATA\s+EMISSAO?\s*:\s*(\S+)`)
	termIssuer      = regexp.MustCompile(`(?i)UG/GESTAO\s+EMITENTE\s*:\s*(\d{6})\s*/\s*\d+\s*[-–]\s*(.+?)(?:\s*[-–]\s*GESTOR|\n|$)`)
	termIssuerUG    = regexp.MustCompile(`(?i)UG/GESTAO\s+EMITENTE\s*:\s*(\d{6})`)
	termRecipient   = regexp.MustCompile(`(?i)UG/GESTAO\s+FAVORECIDA\s*:\s*(\d{6})\s*/\s*\d+\s*[-–]\s*(.+?)(?:\n|$)`)
	termRecipientUG = regexp.MustCompile(`(?i)UG/GESTAO\s+FAVORECIDA\s*:\s*(\d{6})`)
	termObservation = regexp.MustCompile(`(?i)OBSERVACAO\s*\n([\s\S]+?)(?:\nLANCADO\s+POR|$)`)

	deadlineUntil    = regexp.MustCompile(`(?i)EMPENHO\s+AT[ÉE]\s+(\d+\s*DIAS?\b|\S+)`)
	deadlineShort    = regexp.MustCompile(`(?i)EMPH\s+AT[ÉE]\s+(.+?)[\.\n\r]`)
	deadlineDate     = regexp.MustCompile(`(?i)PRAZO\s+DE\s+EMPENHO\s+(\d{1,2}\s*[A-Za-z]{3}\s*\d{2,4})`)
	deadlinePhrase   = regexp.MustCompile(`[Pp]razo\s+de\s+empenho\s+(.+?)[\.\n\r]`)
	relativeDeadline = regexp.MustCompile(`(?i)^(\d+)\s*DIAS?`)

	postingEvent = regexp.MustCompile(`^(\d{3})\s+\d{6}.*?(\d{1,3}(?:[.,]\d{3})*[.,]\d{2})\s*$`)
	postingCodes = regexp.MustCompile(`^\s+(\d)\s+(\d{4,6})\s+(\d{9,10})\s+(3[34]\d{4}|339\d{3})\s+(\d{6})\s+([A-Z0-9]{6,15})\s*$`)

	genIssuer      = regexp.MustCompile(`(?i)UG\s+EMITENTE\s+(\d{6})`)
	genEmission    = regexp.MustCompile(`(?i)DATA\s+EMISS[ÃA]O\s+(\S+)`)
	genTotal       = regexp.MustCompile(`(?i)VALOR\s+TOTAL\s+R?\$?\s*([\d.,]+)`)
	genDescription = regexp.MustCompile(`(?is)DESCRI[ÇC][ÃA]O\s+(.+?)(?:\n[A-Z]{3,}|\z)`)
	destPiped      = regexp.MustCompile(`(?i)DESTINO\s*\|\s*\d+\s*\|\s*(\d{6})\s*\|\s*(\d)\s*\|\s*(\d+)\s*\|` +
		`\s*(\d{9,10})\s*\|\s*(3[34]\d{4}|33\.\d{2}\.\d{2})\s*\|\s*(\d{6})` +
		`\s*\|\s*([A-Z0-9]+)\s*\|\s*R?\$?\s*([\d.,]+)`)
	destSpaced = regexp.MustCompile(`(?i)DESTINO\s+\d+\s+\d+\s+(\d{6})\s+(\d)\s+(\d{4,6})\s+` +
		`(\d{9,10})\s+(3[34]\d{4})\s+(\d{6})\s+([A-Z0-9]{6,15})\s+R?\$?\s*([\d.,]+)`)
	genRecipient = regexp.MustCompile(`(?i)UG\s+Favorecida\s*:\s*(\d{6})`)
	genND        = regexp.MustCompile(`(?i)\bND\s+(3[34]\d{4}|33\.\d{2}\.\d{2})`)
	genPTRES     = regexp.MustCompile(`(?i)\bPTRES\s+(\d{4,6})`)
	genSource    = regexp.MustCompile(`(?i)\bFONTE\s+(\d{9,10})`)
	genSphere    = regexp.MustCompile(`(?i)\bESF\s+(\d)`)
	genUGR       = regexp.MustCompile(`(?i)\bUGR\s+(\d{6})`)
	genPI        = regexp.MustCompile(`(?i)\bPI\s+([A-Z0-9]{8,15})`)
)

// IsTerminalLayout reports whether text carries the SIAFI terminal-screen
// report markers.
func IsTerminalLayout(text string) bool {
	folded := brtext.Fold(text)
	for _, m := range terminalMarkers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}

// ParseCreditNotes detects the layout of the credit-note section and
// parses it: the terminal report first when its markers are present, then
// the generic layout. Notes around which no field is found keep only their
// number. The returned diagnostics describe
// fields that could not be located.
func ParseCreditNotes(text string, opts Options) ([]model.CreditNote, []string) {
	opts = opts.withDefaults()
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if IsTerminalLayout(text) {
		if note := ParseTerminalCreditNote(text, opts); note != nil {
			return []model.CreditNote{*note}, nil
		}
	}
	return ParseGenericCreditNotes(text, opts)
}

// ParseTerminalCreditNote reads a DEMONSTRA-DIARIO / DEMONSTRA-CONRAZAO
// screen dump. It returns nil when no credit-note number is present.
func ParseTerminalCreditNote(text string, opts Options) *model.CreditNote {
	opts = opts.withDefaults()
	number := find(termWebNumber, text)
	if number == nil {
		if m := creditNoteNumber.FindString(text); m != "" {
			number = &m
		}
	}
	if number == nil {
		return nil
	}

	nc := &model.CreditNote{
		Number:       number,
		Format:       model.FormatTerminal,
		SIAFIRef:     find(termSIAFIRef, text),
		EmissionDate: find(termEmission, text),
	}
	if m := termIssuer.FindStringSubmatch(text); m != nil {
		nc.IssuerUG, nc.IssuerName = model.Str(m[1]), model.Str(m[2])
	} else {
		nc.IssuerUG = find(termIssuerUG, text)
	}
	if m := termRecipient.FindStringSubmatch(text); m != nil {
		nc.RecipientUG, nc.RecipientName = model.Str(m[1]), model.Str(m[2])
	} else {
		nc.RecipientUG = find(termRecipientUG, text)
	}

	if v := find(deadlineUntil, text); v != nil {
		nc.Deadline = model.Str(strings.TrimRight(*v, ")"))
	}
	if nc.Deadline == nil {
		nc.Deadline = findFirst(text, deadlineShort, deadlineDate)
	}
	nc.Observation = findSquashed(termObservation, text)

	nc.Postings = ParsePostings(text)
	applyPostings(nc)

	ResolveDeadline(nc, opts.Today)
	return nc
}

// ParsePostings reads the two-line ledger postings of a terminal report:
// an event line ending in an amount, followed within three lines by the
// sphere, PTRES, source, ND, UGR and PI codes. Duplicates are removed.
func ParsePostings(text string) []model.LedgerPosting {
	lines := strings.Split(text, "\n")
	var postings []model.LedgerPosting
	for i, line := range lines {
		ev := postingEvent.FindStringSubmatch(line)
		if ev == nil {
			continue
		}
		value := brtext.ParseMoney(ev[2])
		for j := i + 1; j < min(i+4, len(lines)); j++ {
			c := postingCodes.FindStringSubmatch(lines[j])
			if c == nil {
				continue
			}
			postings = append(postings, model.LedgerPosting{
				Event:  ev[1],
				Sphere: c[1],
				PTRES:  c[2],
				Source: c[3],
				ND:     c[4],
				UGR:    c[5],
				PI:     c[6],
				Value:  value,
			})
			break
		}
	}
	return DedupPostings(postings)
}

// DedupPostings drops postings repeating the budget codes and value of an
// earlier one: they are the same balance seen from another screen.
func DedupPostings(postings []model.LedgerPosting) []model.LedgerPosting {
	type key struct {
		nd, ptres, source, ugr, pi, sphere string
		value                              string
	}
	seen := map[key]bool{}
	var out []model.LedgerPosting
	for _, p := range postings {
		k := key{p.ND, p.PTRES, p.Source, p.UGR, p.PI, p.Sphere, "nil"}
		if p.Value != nil {
			k.value = strconv.FormatFloat(*p.Value, 'f', -1, 64)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}

// applyPostings derives the note's budget codes and balances from its
// postings. Each distinct ND keeps the value of its first posting; the
// total is the sum over NDs.
func applyPostings(nc *model.CreditNote) {
	if len(nc.Postings) == 0 {
		return
	}
	var order []string
	balances := map[string]float64{}
	for _, p := range nc.Postings {
		if p.ND == "" {
			continue
		}
		if _, ok := balances[p.ND]; ok {
			continue
		}
		order = append(order, p.ND)
		if p.Value != nil {
			balances[p.ND] = *p.Value
		} else {
			balances[p.ND] = 0
		}
	}

	primary := ""
	for _, nd := range order {
		if nd != GenericND {
			primary = nd
			break
		}
	}
	if primary == "" && len(order) > 0 {
		primary = order[0]
	}

	lead := nc.Postings[0]
	for _, p := range nc.Postings {
		if p.ND == primary {
			lead = p
			break
		}
	}
	nc.ND = model.Str(lead.ND)
	nc.PTRES = model.Str(lead.PTRES)
	nc.Source = model.Str(lead.Source)
	nc.UGR = model.Str(lead.UGR)
	nc.PI = model.Str(lead.PI)
	nc.Sphere = model.Str(lead.Sphere)
	nc.Balance = model.Float(balances[primary])

	total := 0.0
	for _, nd := range order {
		total += balances[nd]
	}
	nc.TotalValue = model.Float(total)
	nc.BalanceByND = balances
}

// ParseGenericCreditNotes reads every distinct credit note of the generic
// printed layout, looking at a window of text around each number's first
// occurrence.
func ParseGenericCreditNotes(text string, opts Options) ([]model.CreditNote, []string) {
	opts = opts.withDefaults()
	var (
		notes []model.CreditNote
		diags []string
	)
	for _, number := range CreditNoteNumbers(text) {
		pos := strings.Index(text, number)
		block, end := window(text, pos, opts.WindowBefore, opts.WindowAfter)

		nc := model.CreditNote{
			Number:       model.Str(number),
			Format:       model.FormatGeneric,
			IssuerUG:     find(genIssuer, block),
			EmissionDate: find(genEmission, block),
		}
		if v := find(genTotal, block); v != nil {
			nc.TotalValue = brtext.ParseMoney(*v)
			nc.Balance = nc.TotalValue
		}
		nc.Deadline = findFirst(block, deadlinePhrase, deadlineUntil, deadlineShort)
		nc.Observation = findSquashed(genDescription, block)

		if !applyDestinationRow(&nc, block) {
			if end < len(text) && strings.Contains(brtext.Fold(text[end:]), "DESTINO") {
				diags = append(diags, fmt.Sprintf(
					"credit note %s: DESTINO row not found within %d characters of the number", number, opts.WindowAfter))
			}
		}
		applyLabeledCodes(&nc, block)

		ResolveDeadline(&nc, opts.Today)
		if onlyNumber(nc) {
			nc.Format = model.FormatNumberOnly
		}
		notes = append(notes, nc)
	}
	return notes, diags
}

// onlyNumber reports whether nothing but the number was found around a note.
func onlyNumber(nc model.CreditNote) bool {
	for _, f := range []*string{
		nc.IssuerUG, nc.EmissionDate, nc.RecipientUG, nc.Sphere, nc.PTRES,
		nc.Source, nc.ND, nc.UGR, nc.PI, nc.Deadline, nc.Observation,
	} {
		if f != nil {
			return false
		}
	}
	return nc.TotalValue == nil
}

func applyDestinationRow(nc *model.CreditNote, block string) bool {
	m := destPiped.FindStringSubmatch(block)
	if m == nil {
		m = destSpaced.FindStringSubmatch(block)
	}
	if m == nil {
		return false
	}
	nc.RecipientUG = model.Str(m[1])
	nc.Sphere = model.Str(m[2])
	nc.PTRES = model.Str(m[3])
	nc.Source = model.Str(m[4])
	nc.ND = model.Str(strings.ReplaceAll(m[5], ".", ""))
	nc.UGR = model.Str(m[6])
	nc.PI = model.Str(m[7])
	if v := brtext.ParseMoney(m[8]); v != nil && *v != 0 && (nc.Balance == nil || *nc.Balance == 0) {
		nc.Balance = v
	}
	return true
}

func applyLabeledCodes(nc *model.CreditNote, block string) {
	model.Fill(&nc.RecipientUG, find(genRecipient, block))
	if v := find(genND, block); v != nil {
		model.Fill(&nc.ND, model.Str(strings.ReplaceAll(*v, ".", "")))
	}
	model.Fill(&nc.PTRES, find(genPTRES, block))
	model.Fill(&nc.Source, find(genSource, block))
	model.Fill(&nc.Sphere, find(genSphere, block))
	model.Fill(&nc.UGR, find(genUGR, block))
	model.Fill(&nc.PI, find(genPI, block))
}

// ResolveDeadline computes the days left until the empenho deadline,
// counted from today in the institution's time zone. A relative "N DIAS"
// deadline is first turned into a date counted from the emission date.
// Notes whose days are already known are left alone.
func ResolveDeadline(nc *model.CreditNote, today time.Time) {
	if nc.DaysRemaining != nil || model.Empty(nc.Deadline) {
		return
	}
	if d := brtext.ParseDate(*nc.Deadline); d != nil {
		nc.DaysRemaining = model.Int(brtext.DaysBetween(today, *d))
		return
	}
	m := relativeDeadline.FindStringSubmatch(strings.TrimSpace(*nc.Deadline))
	if m == nil || model.Empty(nc.EmissionDate) {
		return
	}
	emitted := brtext.ParseDate(*nc.EmissionDate)
	if emitted == nil {
		return
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}
	due := emitted.AddDate(0, 0, n)
	nc.Deadline = model.Str(brtext.FormatDate(due))
	nc.DaysRemaining = model.Int(brtext.DaysBetween(today, due))
}
