package sections

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

var (
	dispatchNumber  = regexp.MustCompile(`[Dd]espacho\s+N[ºo°.]\s*([^\n]+)`)
	leadingDigits   = regexp.MustCompile(`^(\d+)`)
	dispatchOrigin  = regexp.MustCompile(`^\d+[-–]\s*(.+)`)
	dispatchDate    = regexp.MustCompile(`(?i)Campo\s+Grande.*?,\s*(\d{1,2}\s+de\s+[\p{L}\w]+\s+de\s+\d{4})`)
	dispatchSubject = regexp.MustCompile(`(?s)Assunto:\s*(.+?)(?:\n\n|\n[A-Z]|\n\d+\.)`)
	signerWithRank  = regexp.MustCompile(`\n([` + upperLetters + `][` + upperLetters + `\s]+)\s*[-–]\s*` +
		`((?:Cel|TC|Ten[-\s]?Cel|Maj|Cap|1[ºo]\s*Ten|2[ºo]\s*Ten|Ten|Sgt|Cb|Sd|ST|S Ten)[^\n]*)`)
	signerWithTitle = regexp.MustCompile(`\n([` + upperLetters + `][` + upperLetters + `\s]{5,})\n` +
		`((?:Comandante|Ordenador|Chefe|Adjunto|Auxiliar|Gestor)[^\n]+)`)
	officeTitle = regexp.MustCompile(`(?i)\n((?:Comandante|Ordenador\s+de\s+Despesas|Chefe\s+d[aeo]|` +
		`Adjunto\s+d[aeo]|Auxiliar\s+d[aeo]|Gestor\s+de)[^\n]+)`)
	digitalSignature = regexp.MustCompile(`(?i)(?:assinado?\s+(?:digitalmente|eletronicamente)|` +
		`Document[ao]\s+assinad[ao]\s+eletronicamente)`)
)

// ParseDispatch reads one dispatch page. Nothing in the body is
// interpreted beyond the keyword type tag.
func ParseDispatch(page model.Page) model.Dispatch {
	text := page.Text
	d := model.Dispatch{
		Type: DispatchTypeOf(text),
		Text: text,
		Page: page.Number,
	}

	if full := find(dispatchNumber, text); full != nil {
		d.FullNumber = full
		if m := leadingDigits.FindStringSubmatch(*full); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				d.Number = model.Int(n)
			}
		}
		// "324-Fisc Adm/CAF/Cmdo 9º Gpt Log": the last segment is the unit.
		if m := dispatchOrigin.FindStringSubmatch(*full); m != nil {
			parts := strings.Split(m[1], "/")
			if len(parts) >= 2 {
				d.Sector = model.Str(strings.Join(parts[:len(parts)-1], "/"))
				d.Unit = model.Str(parts[len(parts)-1])
			} else {
				d.Sector = model.Str(parts[0])
			}
		}
	}

	d.Date = find(dispatchDate, text)
	d.Subject = findSquashed(dispatchSubject, text)

	if m := signerWithRank.FindStringSubmatch(text); m != nil {
		d.Signatory = model.Str(strings.TrimSpace(m[1]) + " - " + strings.TrimSpace(m[2]))
	} else if m := signerWithTitle.FindStringSubmatch(text); m != nil {
		d.Signatory = model.Str(m[1])
		d.Office = model.Str(m[2])
	}
	if d.Office == nil {
		d.Office = find(officeTitle, text)
	}

	d.DigitallySigned = digitalSignature.MatchString(text)
	return d
}

// DispatchTypeOf tags a dispatch by keyword, first match wins.
func DispatchTypeOf(text string) model.DispatchType {
	up := brtext.Fold(text)
	has := func(s string) bool { return strings.Contains(up, s) }
	switch {
	case has("APROVO") && has("ENCAMINHO"):
		return model.DispatchApprovalForwarding
	case has("APROVO"):
		return model.DispatchApproval
	case has("ENCAMINHO"):
		return model.DispatchForwarding
	case has("RESTITU"):
		return model.DispatchRestitution
	case has("INFORMO"):
		return model.DispatchInformation
	case has("REPROVO"):
		return model.DispatchRejection
	}
	return model.DispatchOther
}

// ParseDispatches parses every page and orders the records by dispatch
// number, then page. Unnumbered dispatches sort first.
func ParseDispatches(pages []model.Page) []model.Dispatch {
	out := make([]model.Dispatch, 0, len(pages))
	for _, p := range pages {
		out = append(out, ParseDispatch(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := sortKey(out[i].Number), sortKey(out[j].Number)
		if ni != nj {
			return ni < nj
		}
		return out[i].Page < out[j].Page
	})
	return out
}

func sortKey(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
