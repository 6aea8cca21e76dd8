package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/process-extractor/internal/model"
)

const contractText = `CONTRATO Nº 059/2024
CONTRATANTE: 9º Batalhão de Suprimento, inscrito no CNPJ 09.123.456/0001-11, UASG 160142

CONTRATADA: ALFA SERVICOS LTDA, inscrita no CNPJ 12.345.678/0001-90

CLÁUSULA PRIMEIRA - OBJETO
1.1. O objeto do presente instrumento é a prestação de serviços de manutenção de viaturas.
1.2. Este Termo de Contrato vincula-se ao Edital.
CLÁUSULA SEGUNDA - VIGÊNCIA
2.1. O prazo de vigência da contratação é de 12 meses, iniciando em 01/04/2024 e encerrando em 31/03/2025.
CLÁUSULA TERCEIRA - PREÇO
3.1. O valor total da contratação é de R$ 120.000,00.
Pregão Eletrônico nº 90004/2024
Documento assinado digitalmente
JOAO DA SILVA
Data: 01/04/2024
Documento assinado digitalmente
MARIA SOUZA
Data: 01/04/2024`

func TestParseContract(t *testing.T) {
	c := ParseContract(contractText)
	require.NotNil(t, c)

	assert.Equal(t, "059/2024", model.Val(c.Number))
	assert.Equal(t, "9º Batalhão de Suprimento", model.Val(c.ContractingName))
	assert.Equal(t, "09.123.456/0001-11", model.Val(c.ContractingCNPJ))
	assert.Equal(t, "160142", model.Val(c.ContractingUASG))
	assert.Equal(t, "ALFA SERVICOS LTDA", model.Val(c.ContractedName))
	assert.Equal(t, "12.345.678/0001-90", model.Val(c.ContractedCNPJ))
	assert.Equal(t, "O objeto do presente instrumento é a prestação de serviços de manutenção de viaturas.", model.Val(c.Object))
	assert.Equal(t, "R$ 120.000,00", model.Val(c.TotalValue))
	require.NotNil(t, c.TotalAmount)
	assert.InDelta(t, 120000.0, *c.TotalAmount, 0.001)
	assert.Equal(t, "01/04/2024", model.Val(c.ValidityStart))
	assert.Equal(t, "31/03/2025", model.Val(c.ValidityEnd))
	assert.Equal(t, "90004/2024", model.Val(c.OriginAuction))
	assert.True(t, c.Signed)
	assert.Equal(t, []string{"JOAO DA SILVA", "MARIA SOUZA"}, c.Signatories)
}

func TestContractQualityGate(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"two fields, no key field", "Pregão Eletrônico nº 90004/2024\nUASG 160142"},
		{"three fields, no key field", "UASG 160142 PE 90004/2024 valor total R$ 10,00"},
		{"empty", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ParseContract(tt.text))
		})
	}
}

func TestContractPositionalCNPJ(t *testing.T) {
	c := ParseContract("CONTRATO Nº 12/2025\nPartes: 09.123.456/0001-11 e 12.345.678/0001-90\nUASG 160142")
	require.NotNil(t, c)
	assert.Equal(t, "09.123.456/0001-11", model.Val(c.ContractingCNPJ))
	assert.Equal(t, "12.345.678/0001-90", model.Val(c.ContractedCNPJ))

	c = ParseContract("CONTRATO Nº 12/2025\n09.123.456/0001-11 12.345.678/0001-90 98.765.432/0001-10\nUASG 160142\nvalor total R$ 10,00")
	require.NotNil(t, c)
	assert.Nil(t, c.ContractedCNPJ, "three CNPJs are ambiguous")
}

func TestContractObjectTruncation(t *testing.T) {
	long := "CLÁUSULA PRIMEIRA - OBJETO\n1.1. "
	for range 30 {
		long += "serviço de manutenção, "
	}
	long += "\nCLÁUSULA SEGUNDA"

	c := ParseContract("CONTRATO Nº 1/2025\nUASG 160142\n" + long)
	require.NotNil(t, c)
	obj := model.Val(c.Object)
	assert.LessOrEqual(t, len([]rune(obj)), 300)
	assert.Equal(t, "manutenção", obj[len(obj)-len("manutenção"):])
}
