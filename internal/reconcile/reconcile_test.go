package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/classify"
	"github.com/a3tai/process-extractor/internal/model"
)

var (
	testNow   = time.Date(2025, time.March, 20, 12, 0, 0, 0, brtext.Location)
	testToday = brtext.Today(testNow)
)

func TestMergeIdentificationCoverWins(t *testing.T) {
	id := model.Identification{Cover: model.Cover{NUP: model.Str("64000.000001/2025-01")}}
	id.Object = model.Str("Objeto da capa")

	MergeIdentification(&id, model.Requisition{
		Number:            model.Str("12"),
		NUP:               model.Str("64000.999999/2025-99"),
		Unit:              model.Str("9º B Sup"),
		Subject:           model.Str("Aquisição de gêneros"),
		AuctionNumber:     model.Str("90004/2025"),
		ParticipationType: model.Str("Participante"),
		UASG:              model.Str("160142"),
		ND:                model.Str("339030"),
		Auction:           &model.AuctionDetails{ManagingUASG: model.Str("160078")},
	})

	assert.Equal(t, "64000.000001/2025-01", model.Val(id.NUP))
	assert.Equal(t, "Objeto da capa", model.Val(id.Object))
	assert.Equal(t, "9º B Sup", model.Val(id.Unit))
	assert.Equal(t, "12", model.Val(id.RequisitionNumber))
	assert.Equal(t, "PE 90004/2025 (Participante)", model.Val(id.Instrument))
	assert.Equal(t, TypeAuction, model.Val(id.Type))
	assert.Equal(t, "160142", model.Val(id.UASG))
	assert.Equal(t, "339030", model.Val(id.ND))
	require.NotNil(t, id.Auction)
	assert.Equal(t, "160078", model.Val(id.Auction.ManagingUASG))
}

func TestMergeIdentificationContractInstrument(t *testing.T) {
	var id model.Identification
	MergeIdentification(&id, model.Requisition{
		ContractNumber: model.Str("059/2024"),
		AuctionNumber:  model.Str("90004/2024"),
		Subject:        model.Str("Manutenção"),
	})
	assert.Equal(t, "Contrato 059/2024", model.Val(id.Instrument))
	assert.Equal(t, TypeContract, model.Val(id.Type))
	assert.Equal(t, "Manutenção", model.Val(id.Object))
	assert.Equal(t, "90004/2024", model.Val(id.AuctionNumber))
}

func TestSupplierCascade(t *testing.T) {
	var id model.Identification
	assert.True(t, FillSupplier(&id, model.Str("ALFA LTDA"), nil))
	assert.False(t, SupplierComplete(id))

	assert.True(t, FillSupplier(&id, model.Str("OUTRA LTDA"), model.Str("12.345.678/0001-90")))
	assert.Equal(t, "ALFA LTDA", model.Val(id.Supplier), "earlier stage is never overwritten")
	assert.Equal(t, "12.345.678/0001-90", model.Val(id.CNPJ))
	assert.True(t, SupplierComplete(id))

	assert.False(t, FillSupplierFromSICAF(&id, &model.SICAF{LegalName: model.Str("SICAF LTDA")}))
	assert.False(t, FillSupplierFromSICAF(&id, nil))

	var empty model.Identification
	assert.True(t, FillSupplierFromSICAF(&empty, &model.SICAF{LegalName: model.Str("SICAF LTDA"), CNPJ: model.Str("98.765.432/0001-10")}))
	assert.Equal(t, "SICAF LTDA", model.Val(empty.Supplier))
}

func TestInferProcessType(t *testing.T) {
	checklist := classify.Classification{model.CategoryChecklist: {{Number: 4}}}
	tests := []struct {
		name string
		id   model.Identification
		cls  classify.Classification
		want string
	}{
		{"contract number", model.Identification{ContractNumber: model.Str("1/2025")}, nil, TypeContract},
		{"checklist page", model.Identification{AuctionNumber: model.Str("90001/2025")}, checklist, TypeContract},
		{"auction beats global empenho", model.Identification{AuctionNumber: model.Str("90001/2025"), EmpenhoType: model.Str("Global")}, nil, TypeAuction},
		{"global empenho", model.Identification{EmpenhoType: model.Str("Global")}, nil, TypeContract},
		{"estimativo empenho", model.Identification{EmpenhoType: model.Str("Estimativo")}, nil, TypeContract},
		{"ordinary empenho", model.Identification{EmpenhoType: model.Str("Ordinário")}, nil, TypeAuction},
		{"undetermined", model.Identification{}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Val(InferProcessType(tt.id, tt.cls)))
		})
	}
}

func TestComplementCreditNotes(t *testing.T) {
	notes := []model.CreditNote{
		{Number: model.Str("2025NC000001"), ND: model.Str("339039"), TotalValue: model.Float(80),
			Deadline: model.Str("30 DIAS"), EmissionDate: model.Str("10/03/2025")},
		{Number: model.Str("2025NC000002"), Balance: model.Float(5), TotalValue: model.Float(80)},
	}
	id := model.Identification{ND: model.Str("339030"), PTRES: model.Str("171460"), Source: model.Str("1000000000"), PI: model.Str("E6SUPLJA1QR")}

	ComplementCreditNotes(notes, id, testToday)

	assert.Equal(t, "339039", model.Val(notes[0].ND), "note's own value is kept")
	assert.Equal(t, "171460", model.Val(notes[0].PTRES))
	assert.Equal(t, "1000000000", model.Val(notes[0].Source))
	assert.Equal(t, "09/04/2025", model.Val(notes[0].Deadline))
	assert.Equal(t, 20, *notes[0].DaysRemaining)
	assert.InDelta(t, 80.0, *notes[0].Balance, 0.001)

	assert.Equal(t, "339030", model.Val(notes[1].ND))
	assert.InDelta(t, 5.0, *notes[1].Balance, 0.001)
}

func TestApplyCreditNoteMirror(t *testing.T) {
	notes := []model.CreditNote{{ND: model.Str("339039")}, {}}
	m := &model.CreditNoteMirror{ND: model.Str("339030"), UGR: model.Str("160142"), Deadline: model.Str("31/03/2025")}

	filled := ApplyCreditNoteMirror(notes, m, testToday)
	assert.Equal(t, 5, filled)
	assert.Equal(t, "339039", model.Val(notes[0].ND))
	assert.Equal(t, "339030", model.Val(notes[1].ND))
	assert.Equal(t, "160142", model.Val(notes[0].UGR))
	require.NotNil(t, notes[1].DaysRemaining)
	assert.Equal(t, 11, *notes[1].DaysRemaining)

	assert.Zero(t, ApplyCreditNoteMirror(notes, nil, testToday))
}

func TestValidateContract(t *testing.T) {
	id := model.Identification{ContractNumber: model.Str("59/2024"), CNPJ: model.Str("12.345.678/0001-90")}
	c := &model.Contract{
		Number:         model.Str("059/2024"),
		ContractedCNPJ: model.Str("12.345.678/0001-90"),
		ValidityEnd:    model.Str("30/06/2025"),
		Signed:         true,
		Signatories:    []string{"A", "B", "C", "D"},
	}
	sicaf := &model.SICAF{CNPJ: model.Str("98.765.432/0001-10")}

	checks := ValidateContract(id, c, sicaf, testNow)
	require.Len(t, checks, 5)
	assert.Equal(t, model.ContractCheck{Field: FieldContractNumber, Status: model.CheckGreen, Message: "Número confere: 059/2024"}, checks[0])
	assert.Equal(t, model.CheckGreen, checks[1].Status)
	assert.Equal(t, FieldCNPJvsSICAF, checks[2].Field)
	assert.Equal(t, model.CheckRed, checks[2].Status)
	assert.Equal(t, "Contrato assinado digitalmente (4 assinantes: A, B, C)", checks[3].Message)
	assert.Equal(t, model.CheckGreen, checks[4].Status)

	assert.Nil(t, ValidateContract(id, nil, nil, testNow))
}

func TestValidateContractMismatches(t *testing.T) {
	id := model.Identification{ContractNumber: model.Str("60/2024"), CNPJ: model.Str("98.765.432/0001-10")}
	c := &model.Contract{Number: model.Str("059/2024"), ContractedCNPJ: model.Str("12.345.678/0001-90")}

	checks := ValidateContract(id, c, nil, testNow)
	require.Len(t, checks, 3)
	assert.Equal(t, model.CheckRed, checks[0].Status)
	assert.Equal(t, "Divergência: requisição=60/2024, documento=059/2024", checks[0].Message)
	assert.Equal(t, model.CheckRed, checks[1].Status)
	assert.Equal(t, model.ContractCheck{Field: FieldSignatures, Status: model.CheckYellow, Message: "Assinaturas digitais não detectadas no documento"}, checks[2])

	checks = ValidateContract(model.Identification{ContractNumber: model.Str("1/2025")}, &model.Contract{}, nil, testNow)
	assert.Equal(t, model.CheckYellow, checks[0].Status)
}

func TestValidityCheck(t *testing.T) {
	tests := []struct {
		end     string
		status  model.CheckStatus
		message string
	}{
		{"30/06/2025", model.CheckGreen, "Vigente até 30/06/2025 (101 dias restantes)"},
		{"31/03/2025", model.CheckYellow, "Vigente até 31/03/2025 (10 dias restantes)"},
		{"01/03/2025", model.CheckRed, "Contrato vencido desde 01/03/2025 (19 dias)"},
		{"indeterminado", model.CheckYellow, "Data de vigência não pôde ser interpretada: indeterminado"},
	}
	for _, tt := range tests {
		t.Run(tt.end, func(t *testing.T) {
			got := validityCheck(tt.end, testNow)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.message, got.Message)
		})
	}
}
