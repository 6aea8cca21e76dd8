package sections

import (
	"regexp"
	"strings"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

const (
	upperLetters = `A-ZÁÀÂÃÉÈÊÍÏÓÔÕÖÚÜÇ`
	cnpjGroup    = `(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2})`

	maxPartyNameRunes = 200
	maxObjectRunes    = 300
)

var (
	contractNumber      = regexp.MustCompile(`(?i)CONTRATO\s+(?:DE\s+[\p{L}\w]+\s+(?:DE\s+)?(?:[\p{L}\w]+\s+)?)?N[ºo°]?\s*(\d{1,4}/\d{4})`)
	contractNumberAlt   = regexp.MustCompile(`(?i)(\d{1,4}/\d{4})\s*,?\s*QUE\s+FAZEM`)
	contractingParty    = regexp.MustCompile(`(?is)CONTRATANTE[:\s,]+(?:o|a)?\s*(?:UNI[ÃA]O,?\s+POR\s+INTERM[ÉE]DIO\s+D[OA]\s+)?(.+?)(?:,\s*inscrit|\s*CNPJ|\s*,\s*com\s+sede|\n\n)`)
	contractingCNPJ     = regexp.MustCompile(`(?is)CONTRATANTE.{0,300}?CNPJ[:\s]*` + cnpjGroup)
	contractedParty     = regexp.MustCompile(`(?is)CONTRATAD[AO][:\s,]+(?:a\s+empresa\s+)?(.+?)(?:,\s*inscrit|\s*,?\s*CNPJ|\s*,\s*com\s+sede|\n\n)`)
	contractedCNPJ      = regexp.MustCompile(`(?is)CONTRATAD[AO].{0,300}?CNPJ[:\s]*` + cnpjGroup)
	contractedCompany   = regexp.MustCompile(`\be\s+([` + upperLetters + `][` + upperLetters + `\s&]+(?:LTDA|S/?A|ME|EIRELI|EPP))`)
	clauseFragment      = regexp.MustCompile(`(?i)^(?:ao|a|o|neste|nesta|nos|das)\b`)
	contractUASG        = regexp.MustCompile(`(?i)UASG\s*:?\s*(\d{6})`)
	contractObject      = regexp.MustCompile(`(?is)(?:CL[ÁA]USULA\s+PRIMEIRA\s*[-–]?\s*OBJETO|1\.\s*CL[ÁA]USULA\s+PRIMEIRA).+?(?:1\.1\.?\s*)(.+?)(?:1\.2\.|CL[ÁA]USULA\s+SEGUNDA)`)
	objectBindingClause = regexp.MustCompile(`\s*Este\s+Termo\s+de\s+Contrato\s+vincula.*`)
	contractValue       = regexp.MustCompile(`(?is)(?:valor\s+total|valor\s+global|valor\s+d[ao]\s+contrat).{0,50}?R\$\s*([\d.,]+)`)
	contractValidity    = regexp.MustCompile(`(?is)(?:prazo\s+de\s+vig[êe]ncia|vig[êe]ncia\s+d[eo]).+?(\d{1,2}/\d{1,2}/\d{4}).+?(\d{1,2}/\d{1,2}/\d{4})`)
	contractAuction     = regexp.MustCompile(`(?i)(?:PREG[ÃA]O\s+ELETR[ÔO]NICO\s+(?:SRP\s+)?N[ºo°]\s*|PE\s+)(\d{3,5}/\d{4})`)
	signatureMark       = regexp.MustCompile(`(?i)(?:Assinado\s+digitalmente|Documento\s+assinado\s+digitalmente)`)
	signerAfterMark     = regexp.MustCompile(`(?:Documento\s+)?[Aa]ssinado\s+digitalmente\s*\n\s*(.+?)(?:\n|Data:)`)
	signerAfterParty    = regexp.MustCompile(`(?:CONTRATANTE|CONTRATAD[AO])\s+(?:Documento\s+assinado\s+digitalmente\s+)?([` + upperLetters + `][` + upperLetters + `\s]+[A-Z])\b`)
	ocrLeadingW         = regexp.MustCompile(`^[wW]\s+`)
)

// ParseContract reads the contract document. The contract classifier is
// permissive, so a result with fewer than three populated fields, or with
// none of number, contracted CNPJ, object and validity start, is dropped
// and nil is returned.
func ParseContract(text string) *model.Contract {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	c := &model.Contract{}

	c.Number = findFirst(text, contractNumber, contractNumberAlt)

	if v := findSquashed(contractingParty, text); v != nil && len([]rune(*v)) < maxPartyNameRunes {
		c.ContractingName = v
	}
	c.ContractingCNPJ = find(contractingCNPJ, text)
	c.ContractedName = parseContractedName(text)

	c.ContractedCNPJ = find(contractedCNPJ, text)
	if c.ContractedCNPJ == nil {
		// Positional fallback only when the document names exactly two parties.
		if cnpjs := uniqueMatches(cnpjPattern, text); len(cnpjs) == 2 {
			if c.ContractingCNPJ == nil {
				c.ContractingCNPJ = model.Str(cnpjs[0])
			}
			c.ContractedCNPJ = model.Str(cnpjs[1])
		}
	}

	c.ContractingUASG = find(contractUASG, text)
	c.Object = parseContractObject(text)

	if v := find(contractValue, text); v != nil {
		amount := strings.TrimRight(*v, ".,")
		c.TotalValue = model.Str("R$ " + amount)
		c.TotalAmount = brtext.ParseMoney(amount)
	}
	if m := contractValidity.FindStringSubmatch(text); m != nil {
		c.ValidityStart = model.Str(m[1])
		c.ValidityEnd = model.Str(m[2])
	}
	c.OriginAuction = find(contractAuction, text)

	c.Signed = len(signatureMark.FindAllString(text, -1)) >= 2
	c.Signatories = parseSignatories(text)

	if !passesQualityGate(c) {
		return nil
	}
	return c
}

func parseContractedName(text string) *string {
	if v := findSquashed(contractedParty, text); v != nil {
		n := len([]rune(*v))
		if n > 3 && n < maxPartyNameRunes && !clauseFragment.MatchString(*v) {
			return v
		}
	}
	return findSquashed(contractedCompany, text)
}

// parseContractObject reads item 1.1 of clause one, cut at the last comma
// within the first 300 characters when longer.
func parseContractObject(text string) *string {
	v := findSquashed(contractObject, text)
	if v == nil {
		return nil
	}
	obj := objectBindingClause.ReplaceAllString(*v, "")
	if r := []rune(obj); len(r) > maxObjectRunes {
		obj = string(r[:maxObjectRunes])
		if i := strings.LastIndex(obj, ","); i >= 0 {
			obj = obj[:i]
		}
	}
	return model.Str(obj)
}

func parseSignatories(text string) []string {
	var raw []string
	for _, m := range signerAfterMark.FindAllStringSubmatch(text, -1) {
		raw = append(raw, m[1])
	}
	if len(raw) == 0 {
		for _, m := range signerAfterParty.FindAllStringSubmatch(text, -1) {
			raw = append(raw, m[1])
		}
	}

	var names []string
	for _, r := range raw {
		name := ocrLeadingW.ReplaceAllString(strings.TrimSpace(r), "")
		low := strings.ToLower(name)
		if len([]rune(name)) <= 5 ||
			strings.Contains(low, "assinado") ||
			strings.Contains(low, "documento") ||
			strings.Contains(low, "verifique") {
			continue
		}
		names = append(names, name)
	}
	return names
}

func passesQualityGate(c *model.Contract) bool {
	populated := 0
	for _, f := range []*string{
		c.Number, c.ContractingUASG, c.ContractingName, c.ContractingCNPJ,
		c.ContractedName, c.ContractedCNPJ, c.Object, c.TotalValue,
		c.ValidityStart, c.ValidityEnd, c.OriginAuction,
	} {
		if !model.Empty(f) {
			populated++
		}
	}
	if c.Signed {
		populated++
	}

	key := 0
	for _, f := range []*string{c.Number, c.ContractedCNPJ, c.Object, c.ValidityStart} {
		if !model.Empty(f) {
			key++
		}
	}
	return populated >= 3 && key >= 1
}
