package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/process-extractor/internal/model"
)

const approvalDispatch = `MINISTÉRIO DA DEFESA
Despacho Nº 324-Fisc Adm/CAF/Cmdo 9º Gpt Log
Campo Grande, MS, 9 de fevereiro de 2026.
Assunto: aquisição de material
de limpeza
1. APROVO a despesa e ENCAMINHO à SALC.

FULANO DE TAL - TC
Ordenador de Despesas do 9º B Sup
Documento assinado digitalmente`

func TestParseDispatch(t *testing.T) {
	d := ParseDispatch(model.Page{Number: 7, Text: approvalDispatch})

	assert.Equal(t, "324-Fisc Adm/CAF/Cmdo 9º Gpt Log", model.Val(d.FullNumber))
	require.NotNil(t, d.Number)
	assert.Equal(t, 324, *d.Number)
	assert.Equal(t, "Fisc Adm/CAF", model.Val(d.Sector))
	assert.Equal(t, "Cmdo 9º Gpt Log", model.Val(d.Unit))
	assert.Equal(t, "9 de fevereiro de 2026", model.Val(d.Date))
	assert.Equal(t, "aquisição de material de limpeza", model.Val(d.Subject))
	assert.Equal(t, model.DispatchApprovalForwarding, d.Type)
	assert.Equal(t, "FULANO DE TAL - TC", model.Val(d.Signatory))
	assert.Equal(t, "Ordenador de Despesas do 9º B Sup", model.Val(d.Office))
	assert.True(t, d.DigitallySigned)
	assert.Equal(t, 7, d.Page)
	assert.Equal(t, approvalDispatch, d.Text)
}

func TestParseDispatchTitleSignatory(t *testing.T) {
	d := ParseDispatch(model.Page{Number: 2, Text: "Despacho Nº 10-SALC\nINFORMO que o processo está completo.\n\nJOSE PEREIRA\nChefe da SALC\n"})

	assert.Equal(t, "SALC", model.Val(d.Sector))
	assert.Nil(t, d.Unit)
	assert.Equal(t, model.DispatchInformation, d.Type)
	assert.Equal(t, "JOSE PEREIRA", model.Val(d.Signatory))
	assert.Equal(t, "Chefe da SALC", model.Val(d.Office))
	assert.False(t, d.DigitallySigned)
}

func TestDispatchTypeOf(t *testing.T) {
	tests := []struct {
		text string
		want model.DispatchType
	}{
		{"Aprovo e encaminho", model.DispatchApprovalForwarding},
		{"APROVO", model.DispatchApproval},
		{"Encaminho ao Fiscal", model.DispatchForwarding},
		{"Restituo para correções", model.DispatchRestitution},
		{"Informo que", model.DispatchInformation},
		{"Reprovo a despesa", model.DispatchRejection},
		{"Ciente", model.DispatchOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DispatchTypeOf(tt.text), tt.text)
	}
}

func TestParseDispatchesOrder(t *testing.T) {
	got := ParseDispatches([]model.Page{
		{Number: 3, Text: "Despacho Nº 20-SALC"},
		{Number: 1, Text: "Despacho Nº 5-SALC"},
		{Number: 2, Text: "despacho sem número"},
	})
	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{got[0].Page, got[1].Page, got[2].Page})
}
