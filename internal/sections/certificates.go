package sections

import (
	"regexp"
	"strings"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/model"
)

var (
	sicafLegalName   = regexp.MustCompile(`(?s)Raz[ãa]o\s+Social:\s*(.+?)(?:\n|Nome Fantasia)`)
	sicafTradeName   = regexp.MustCompile(`Nome\s+Fantasia:\s*(.+?)\n`)
	sicafStatus      = regexp.MustCompile(`Situa[çc][ãa]o\s+do\s+Fornecedor:\s*([\p{L}\w]+)`)
	sicafExpiry      = regexp.MustCompile(`Vencimento\s+do\s+Cadastro:\s*(\d{2}/\d{2}/\d{4})`)
	sicafSize        = regexp.MustCompile(`Porte\s+da\s+Empresa:\s*(.+?)\n`)
	sicafOccurrence  = regexp.MustCompile(`Ocorr[êe]ncia:\s*(.+?)\n`)
	sicafImpediment  = regexp.MustCompile(`Impedimento\s+de\s+Licitar:\s*(.+?)\n`)
	sicafIndirect    = regexp.MustCompile(`Ocorr[êe]ncias\s+Impeditivas\s+[Ii]ndiretas:\s*(.+?)\n`)
	sicafPublicLink  = regexp.MustCompile(`V[ií]nculo\s+com\s+["“]?Servi[çc]o\s+P[úu]blico["”]?:\s*(.+?)\n`)
	sicafEconomic    = regexp.MustCompile(`(?is)Qualifica[çc][ãa]o\s+Econ[ôo]mico.*?Validade:\s*(\d{2}/\d{2}/\d{4})`)
	sicafEmission    = regexp.MustCompile(`Emitido\s+em:\s*(\d{2}/\d{2}/\d{4})`)
	cadinFederal     = regexp.MustCompile(`(?i)Situa[çc][ãa]o\s+para\s+a\s+Esfera\s+Federal:\s*([\p{L}\w]+)`)
	cadinAnyStatus   = regexp.MustCompile(`(?i)Situa[çc][ãa]o.*?:\s*(REGULAR|IRREGULAR|NADA\s+CONSTA)`)
	cadinEmission    = regexp.MustCompile(`Emiss[ãa]o\s+em\s+(\d{2}/\d{2}/\d{4})`)
	checkLegalName   = regexp.MustCompile(`Raz[ãa]o\s+Social:\s*(.+?)\n`)
	checkDate        = regexp.MustCompile(`Consulta\s+realizada\s+em:\s*(\d{2}/\d{2}/\d{4})`)
	checkBody        = regexp.MustCompile(`(?i)[ÓO]rg[ãa]o\s+Gestor:\s*(.+)`)
	checkRegistry    = regexp.MustCompile(`(?i)^\s*Cadastro:\s*(.+)`)
	checkResult      = regexp.MustCompile(`(?i)^\s*Resultado\s+da\s+consulta:\s*(.+)`)
	checkResultStart = regexp.MustCompile(`(?i)^\s*Resultado`)
)

// Validity keys of the SICAF certificate list.
const (
	ValidityFederal   = "federal_revenue"
	ValidityFGTS      = "fgts"
	ValidityLabor     = "labor"
	ValidityState     = "state_revenue"
	ValidityMunicipal = "municipal_revenue"
	ValidityEconomic  = "economic_qualification"
)

var sicafValidities = []struct {
	key string
	re  *regexp.Regexp
}{
	{ValidityFederal, regexp.MustCompile(`(?i)Receita\s+Federal.*?Validade:\s*(\d{2}/\d{2}/\d{4})`)},
	{ValidityFGTS, regexp.MustCompile(`(?i)FGTS\s+Validade:\s*(\d{2}/\d{2}/\d{4})`)},
	{ValidityLabor, regexp.MustCompile(`(?i)Trabalhista.*?Validade:\s*(\d{2}/\d{2}/\d{4})`)},
	{ValidityState, regexp.MustCompile(`(?i)Receita\s+Estadual.*?Validade:\s*(\d{2}/\d{2}/\d{4})`)},
	{ValidityMunicipal, regexp.MustCompile(`(?i)Receita\s+Municipal.*?Validade:\s*(\d{2}/\d{2}/\d{4})`)},
	{ValidityEconomic, sicafEconomic},
}

// ParseSICAF reads the SICAF supplier report.
func ParseSICAF(text string) *model.SICAF {
	s := &model.SICAF{
		CNPJ:                 find(labeledCNPJ, text),
		LegalName:            find(sicafLegalName, text),
		Status:               find(sicafStatus, text),
		RegistryExpiry:       find(sicafExpiry, text),
		CompanySize:          find(sicafSize, text),
		Occurrence:           find(sicafOccurrence, text),
		LicitationImpediment: find(sicafImpediment, text),
		IndirectImpediment:   find(sicafIndirect, text),
		PublicServiceLink:    find(sicafPublicLink, text),
		Validities:           map[string]string{},
		EmissionDate:         find(sicafEmission, text),
	}
	// An empty trade name swallows the next label.
	if v := find(sicafTradeName, text); v != nil && !strings.Contains(*v, "Situação") && !strings.Contains(*v, "Fornecedor") {
		s.TradeName = v
	}
	for _, v := range sicafValidities {
		if d := find(v.re, text); d != nil {
			s.Validities[v.key] = *d
		}
	}
	return s
}

// ParseCADIN reads the CADIN consultation.
func ParseCADIN(text string) *model.CADIN {
	c := &model.CADIN{
		CNPJ:         find(labeledCNPJ, text),
		EmissionDate: find(cadinEmission, text),
	}
	if v := findFirst(text, cadinFederal, cadinAnyStatus); v != nil {
		c.Status = model.Str(strings.ToUpper(brtext.Squash(*v)))
	}
	return c
}

// ParseConsolidated reads the consolidated legal-entity consultation.
// Each registry block is "Órgão Gestor", "Cadastro" (possibly wrapped over
// several lines) and "Resultado da consulta".
func ParseConsolidated(text string) *model.ConsolidatedCheck {
	c := &model.ConsolidatedCheck{
		CNPJ:             find(labeledCNPJ, text),
		LegalName:        find(checkLegalName, text),
		ConsultationDate: find(checkDate, text),
	}

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		body := checkBody.FindStringSubmatch(lines[i])
		if body == nil || i+1 >= len(lines) {
			continue
		}
		reg := checkRegistry.FindStringSubmatch(lines[i+1])
		if reg == nil {
			continue
		}
		name := []string{strings.TrimSpace(reg[1])}
		for j := i + 2; j < len(lines); j++ {
			line := lines[j]
			if res := checkResult.FindStringSubmatch(line); res != nil {
				check := model.RegistryCheck{
					Body:     strings.TrimSpace(body[1]),
					Registry: brtext.Squash(strings.Join(name, " ")),
					Result:   strings.TrimSpace(res[1]),
				}
				check.ShortName = ShortRegistryName(check.Registry, check.Body)
				c.Registries = append(c.Registries, check)
				i = j
				break
			}
			if checkBody.MatchString(line) || checkResultStart.MatchString(line) {
				i = j - 1
				break
			}
			name = append(name, strings.TrimSpace(line))
		}
	}
	return c
}

// ShortRegistryName maps a registry to its short display label, falling
// back to the registry name itself.
func ShortRegistryName(registry, body string) string {
	r := brtext.Fold(registry)
	b := brtext.Fold(body)
	switch {
	case strings.Contains(r, "INID") && strings.Contains(b, "TCU"):
		return "TCU - Licitantes Inidôneos"
	case strings.Contains(r, "CNIA") || strings.Contains(r, "IMPROBIDADE"):
		return "CNJ - Improbidade"
	case strings.Contains(r, "INID") && strings.Contains(r, "SUSPENS"):
		return "CEIS - Inidôneas/Suspensas"
	case strings.Contains(r, "CNEP") || strings.Contains(r, "PUNIDAS"):
		return "CNEP - Empresas Punidas"
	case strings.Contains(r, "CEPIM"):
		return "CEPIM - Impedidas"
	case strings.Contains(r, "CADICON") || strings.Contains(r, "ETCE"):
		return "CADICON / eTCE"
	}
	return registry
}
