package classify

import (
	"regexp"

	"github.com/a3tai/process-extractor/internal/model"
)

var (
	dispatchMarker  = regexp.MustCompile(`DESPACHO\s*N[ºO°]`)
	requisitionNr   = regexp.MustCompile(`REQ\s*(?:N[ºO°]\s*)?\d`)
	creditNoteNr    = regexp.MustCompile(`20\d{2}NC\d{6}`)
	numberedClause  = regexp.MustCompile(`CLAUSULA\s+(?:PRIMEIRA|SEGUNDA|TERCEIRA|QUARTA|QUINTA|SEXTA|SETIMA|OITAVA|NONA|DECIMA)`)
	auctionMentions = regexp.MustCompile(`PREGAO\s+ELETRONICO|LICITACAO|TERMO\s+DE\s+REFERENCIA`)
)

// getDefaultRules returns the page rules in evaluation order. Phrases are
// matched against accent-folded uppercase text.
func getDefaultRules() []Rule {
	return []Rule{
		{
			Name:     "cover",
			Category: model.CategoryCover,
			Conditions: []Condition{
				{All: []string{"PROCESSO NUP"}},
				{All: []string{"PROTOCOLO GERAL"}},
				{All: []string{"PECAS PROCESSUAIS"}},
				{All: []string{"CHECK LIST", "PECAS"}},
			},
			Exclusive:   true,
			Enabled:     true,
			Description: "Process cover: NUP banner, general protocol or piece list",
		},
		{
			Name:     "opening_term",
			Category: model.CategoryOpeningTerm,
			Conditions: []Condition{
				{All: []string{"TERMO DE ABERTURA"}},
				{All: []string{"AUTUO O PRESENTE PROCESSO"}},
			},
			Exclusive:   true,
			Enabled:     true,
			Description: "Opening term of the process",
		},
		{
			Name:     "dispatch_approval",
			Category: model.CategoryDispatch,
			Conditions: []Condition{
				{All: []string{"APROVO"}, Patterns: []*regexp.Regexp{dispatchMarker}},
			},
			Exclusive:   true,
			Enabled:     true,
			Description: "Numbered dispatch approving the expense",
		},
		{
			Name:     "dispatch_forwarding",
			Category: model.CategoryDispatch,
			Conditions: []Condition{
				{All: []string{"ENCAMINHO"}, Patterns: []*regexp.Regexp{dispatchMarker}},
			},
			Exclusive:   true,
			Enabled:     true,
			Description: "Numbered dispatch forwarding the process",
		},
		{
			Name:     "checklist",
			Category: model.CategoryChecklist,
			Conditions: []Condition{
				{All: []string{"CHECK LIST", "CONTRATO"}},
			},
			Enabled:     true,
			Description: "Contract check list",
		},
		{
			Name:     "requisition",
			Category: model.CategoryRequisition,
			Guard:    GuardUnclassified,
			Signals: []Condition{
				{Patterns: []*regexp.Regexp{requisitionNr}},
				{All: []string{"ORDENADOR DE DESPESAS"}},
				{All: []string{"TIPO DE EMPENHO"}},
				{All: []string{"AO SR", "ORDENADOR"}},
				{All: []string{"MATERIAL", "ADQUIRIDO"}},
				{All: []string{"TOTAL"}, Any: []string{"P. UNT", "P.UNT"}},
				{All: []string{"FISC ADM", "REQUISI"}},
			},
			MinSignals:  2,
			Enabled:     true,
			Description: "Requisition letter and its item-table continuation pages",
		},
		{
			Name:     "credit_note",
			Category: model.CategoryCreditNote,
			Guard:    GuardNotRequisition,
			Conditions: []Condition{
				{All: []string{"NOTA DE CREDITO"}},
				{All: []string{"UG EMITENTE"}},
				{All: []string{"SISTEMA ORIGEM SIAFI"}},
				{All: []string{"DEMONSTRA-DIARIO"}},
				{All: []string{"DEMONSTRA-CONRAZAO"}},
				{Patterns: []*regexp.Regexp{creditNoteNr}},
			},
			Enabled:     true,
			Description: "Credit note in any of its printed layouts",
		},
		{
			Name:     "sicaf",
			Category: model.CategorySICAF,
			Conditions: []Condition{
				{All: []string{"DADOS DO FORNECEDOR", "SITUACAO DO FORNECEDOR"}},
				{All: []string{"CADASTRAMENTO UNIFICADO DE FORNECEDORES", "DADOS DO FORNECEDOR"}},
			},
			Enabled:     true,
			Description: "SICAF supplier report, not documents that merely cite it",
		},
		{
			Name:     "cadin",
			Category: model.CategoryCADIN,
			Conditions: []Condition{
				{All: []string{"CADIN"}, Any: []string{"CREDITOS NAO QUITADOS", "CONSULTA CONTRATANTE"}},
			},
			Enabled:     true,
			Description: "CADIN debtor consultation",
		},
		{
			Name:     "consolidated_check",
			Category: model.CategoryConsolidated,
			Conditions: []Condition{
				{All: []string{"CONSULTA CONSOLIDADA DE PESSOA", "RESULTADO"}},
			},
			Enabled:     true,
			Description: "Consolidated legal-entity consultation (TCU, CNJ, CEIS, CNEP)",
		},
		{
			Name:     "dispatch",
			Category: model.CategoryDispatch,
			Guard:    GuardUnclassified,
			Conditions: []Condition{
				{Patterns: []*regexp.Regexp{dispatchMarker}},
			},
			Enabled:     true,
			Description: "Any other numbered dispatch",
		},
		{
			Name:     "edital",
			Category: model.CategoryEdital,
			Guard:    GuardUnclassified,
			Conditions: []Condition{
				{All: []string{"EDITAL"}, Patterns: []*regexp.Regexp{auctionMentions}},
			},
			Enabled:     true,
			Description: "Auction notice or terms of reference attached to the process",
		},
		{
			Name:     "contract",
			Category: model.CategoryContract,
			Conditions: []Condition{
				{All: []string{"TERMO DE CONTRATO"}},
				{All: []string{"CONTRATANTE", "CONTRATADA"}},
			},
			Signals: []Condition{
				{Patterns: []*regexp.Regexp{numberedClause}},
				{Any: []string{"CONTRATADA", "CONTRATANTE"}},
				{All: []string{"EXECU", "CONTRAT"}},
				{All: []string{"RESCIS", "CONTRAT"}},
				{All: []string{"VIG", "CONTRAT"}},
				{All: []string{"GARANTIA DE EXECU"}},
			},
			MinSignals:  2,
			Enabled:     true,
			Description: "Contract instrument or its clauses; weak matches are gated by the contract parser",
		},
	}
}
