package sections

import (
	"regexp"
	"strings"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

var (
	reqNumber     = regexp.MustCompile(`(?i)Req\.?\s*(?:n[ºo°]\s*)?(\d+)\s*[-–]\s*(.+?)(?:\n|$)`)
	unitLikeFull  = regexp.MustCompile(`\d.*(Gpt|B\s|Cia|Esqd|Trnp|Mnt|Sup)`)
	unitLikeShort = regexp.MustCompile(`\d.*(Gpt|B\s|Cia|Esqd)`)
	reqCommander  = regexp.MustCompile(`(?i)Do\s+(?:Sr\s+)?Cmt\s+d[oa]\s+(.+?)(?:\n|$)`)
	reqInCharge   = regexp.MustCompile(`(?i)Do\s+Enc\s+(.+?)(?:\n|$)`)
	cmdoPrefix    = regexp.MustCompile(`(?i)^Cmdo\s+`)
	reqNUP        = regexp.MustCompile(`NUP:\s*(\d{5}\.\d{6}/\d{4}-\d{2})`)
	reqDate       = regexp.MustCompile(`(?i)Campo Grande\s*,?\s*(?:MS|–)?\s*,?\s*(.+?)(?:\.|$)`)
	reqAddressee  = regexp.MustCompile(`(?i)Ao\s+Sr\.?\s+(.+?)(?:\n|$)`)
	reqSubject    = regexp.MustCompile(`(?i)Assunto:\s*(.+?)(?:\n|$)`)
	reqReference  = regexp.MustCompile(`(?i)(?:Rfr|Refer[êe]ncia):\s*(.+?)(?:\n|$)`)
	reqFederalLaw = regexp.MustCompile(`(?i)Lei Federal\s+Nr?\s+(.+?)(?:\n|$)`)
	empenhoLabel  = regexp.MustCompile(`(?i)Tipo\s+de\s+Empenho\s*:?\s*(Ordin[áa]rio|Global|Estimativo)`)
	supplierLabel = regexp.MustCompile(`(?i)(?:Nome\s+da\s+empresa|Empresa):\s*(.+?)(?:\n|$)`)
	noteIssuer    = regexp.MustCompile(`(?i)(?:d[oae]\s+|d[oae]l[ao]\s+)(DGO|COEX|COTER|DGP|COE|GDP|Diretoria\s+de\s+Gest[ãa]o\s+Or[çc]ament[áa]ria)`)
	reqND         = regexp.MustCompile(`ND\s*(3[34]\d{4}|33\.90\.\d{2})`)
	reqPI         = regexp.MustCompile(`PI\s*([A-Z0-9]{8,15})`)
	reqPTRES      = regexp.MustCompile(`PTRES\s*(\d{4,6})`)
	reqUGR        = regexp.MustCompile(`UGR\s*(\d{6})`)
	reqSource     = regexp.MustCompile(`FONTE\s*(\d{10})`)
	reqAuction    = regexp.MustCompile(`(?i)(?:Preg[ãa]o|PE)\s*(?:Eletr[ôo]nico\s*)?(?:n[ºo°]\s*)?(\d{3,5}/\d{4})`)
	reqUASG       = regexp.MustCompile(`(?i)(?:UASG|gerenciad[ao]\s+pel[ao])\s*:?\s*(\d{6})`)
	participation = regexp.MustCompile(`(?i)\((PART|GER|CAR|participante|gerenciador|carona)\)`)
	participBare  = regexp.MustCompile(`(?i)(participante|gerenciador|carona)`)
	reqContract   = regexp.MustCompile(`(?i)contrato\s*(?:n[ºo°]\s*)?(\d{1,3}/\d{4})`)
	managingUG    = regexp.MustCompile(`(?i)gerenciad[ao]\s+pel[ao]\s+UG\s*(\d{6})`)
	contractFisc  = regexp.MustCompile(`(?i)(?:Gest[ãa]o e )?Fiscaliza[çc][ãa]o\s+de\s+Contrato:\s*(.+?)(?:\n|$)`)

	// Checkbox style "(X) Global".
	empenhoChecked = []struct {
		re   *regexp.Regexp
		name string
	}{
		{regexp.MustCompile(`\(\s*[xX]\s*\)\s*Ordin[áa]rio`), "Ordinário"},
		{regexp.MustCompile(`\(\s*[xX]\s*\)\s*Global`), "Global"},
		{regexp.MustCompile(`\(\s*[xX]\s*\)\s*Estimativo`), "Estimativo"},
	}

	participationCodes = map[string]string{
		"PARTICIPANTE": "PART",
		"GERENCIADOR":  "GER",
		"CARONA":       "CAR",
	}
)

// Date formats accepted right after the credit-note number.
const noteDateAlternatives = `(\d{1,2}/\d{2}/\d{2,4}` +
	`|\d{1,2}\s+[A-Za-z]{3}\s+\d{2,4}` +
	`|\d{1,2}/[A-Za-z]{3}/\d{2,4}` +
	`|\d{2}[A-Za-z]{3}\d{2,4})`

// ParseRequisition reads the requisition letter. Each field is matched
// independently.
func ParseRequisition(text string) model.Requisition {
	var r model.Requisition

	if m := reqNumber.FindStringSubmatch(text); m != nil {
		r.Number = model.Str(m[1])
		candidate := strings.TrimSpace(strings.Split(strings.TrimSpace(m[2]), "/")[0])
		// "9º Gpt Log" is the unit itself, not a sector.
		if !unitLikeFull.MatchString(candidate) {
			r.Sector = model.Str(candidate)
		}
	}

	parseRequestingUnit(text, &r)

	r.NUP = find(reqNUP, text)
	r.Date = find(reqDate, text)
	r.Addressee = find(reqAddressee, text)
	r.Subject = find(reqSubject, text)
	r.LegalReference = findFirst(text, reqReference, reqFederalLaw)
	r.EmpenhoType = parseEmpenhoType(text)

	if v := find(supplierLabel, text); v != nil {
		r.Supplier = model.Str(stripSupplierSuffix(*v))
	}
	r.CNPJ = find(labeledCNPJ, text)

	if notes := CreditNoteNumbers(text); len(notes) > 0 {
		r.CreditNote = model.Str(notes[0])
		r.AdditionalCreditNotes = notes[1:]
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(notes[0]) + `[\s,]*(?:de\s+)?` + noteDateAlternatives)
		r.CreditNoteDate = find(re, text)
	}
	if v := find(noteIssuer, text); v != nil {
		issuer := strings.ToUpper(*v)
		if strings.HasPrefix(issuer, "DIRETORIA") {
			issuer = "DGO"
		}
		r.CreditNoteIssuer = &issuer
	}

	r.ND = find(reqND, text)
	r.PI = find(reqPI, text)
	r.PTRES = find(reqPTRES, text)
	r.UGR = find(reqUGR, text)
	r.Source = find(reqSource, text)

	if v := find(reqAuction, text); v != nil {
		n := brtext.NormalizeAuctionNumber(*v)
		r.AuctionNumber = &n
	}
	r.Auction = ParseAuctionDetails(text)
	r.UASG = find(reqUASG, text)
	r.ParticipationType = parseParticipation(text)
	r.ContractNumber = find(reqContract, text)
	r.ManagingUG = find(managingUG, text)
	r.ContractFiscal = find(contractFisc, text)

	r.RequesterMask = ExtractRequesterMask(text, model.Val(r.CreditNote))
	return r
}

// parseRequestingUnit reads either "Do Cmt do <unit>" or the
// "Do Enc <sector>/Cmdo <unit>" letterhead.
func parseRequestingUnit(text string, r *model.Requisition) {
	if v := find(reqCommander, text); v != nil {
		r.Unit = v
		return
	}
	v := find(reqInCharge, text)
	if v == nil {
		return
	}
	parts := strings.Split(*v, "/")
	if len(parts) < 2 {
		r.Unit = v
		return
	}
	sector := strings.TrimSpace(parts[0])
	unit := cmdoPrefix.ReplaceAllString(strings.TrimSpace(strings.Join(parts[1:], "/")), "")
	r.Unit = model.Str(unit)
	if r.Sector == nil || unitLikeShort.MatchString(*r.Sector) {
		r.Sector = model.Str(sector)
	}
}

func parseEmpenhoType(text string) *string {
	if v := find(empenhoLabel, text); v != nil {
		return model.Str(brtext.Capitalize(*v))
	}
	for _, c := range empenhoChecked {
		if c.re.MatchString(text) {
			return model.Str(c.name)
		}
	}
	return nil
}

func parseParticipation(text string) *string {
	v := findFirst(text, participation, participBare)
	if v == nil {
		return nil
	}
	up := strings.ToUpper(*v)
	if code, ok := participationCodes[up]; ok {
		return &code
	}
	return &up
}
